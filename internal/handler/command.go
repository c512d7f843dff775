package handler

import (
	"fmt"
	"strings"

	"github.com/l1jgo/antilag/internal/antilag"
	"github.com/l1jgo/antilag/internal/core/event"
	"go.uber.org/zap"
)

const (
	msgNoPermission = "You don't have permission to use this command!"
	msgClearLag     = "ClearLag executed! Removed %d items from the ground."
	msgReloaded     = "UltimateAntiLag configuration reloaded!"
	msgReloadFailed = "UltimateAntiLag configuration could not be reloaded: %v"
	msgAttribution  = "Plugin created by: Phoenix4041"
)

// command 綁定指令處理函式與其所需權限節點。
type command struct {
	perm string
	run  func(Sender, []string, *Deps)
}

var commands = map[string]command{
	"clearlag":      {perm: antilag.PermClearLag, run: cmdClearLag},
	"antilagstats":  {perm: antilag.PermStats, run: cmdStats},
	"antilagreload": {perm: antilag.PermReload, run: cmdReload},
}

// HandleCommand 執行 UltimateAntiLag 指令（"/clearlag"、"antilagstats"）。
// Returns true if the line was one of ours (consumed), false otherwise.
func HandleCommand(sender Sender, line string, deps *Deps) bool {
	parts := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(parts) == 0 {
		return false
	}
	name := strings.ToLower(parts[0])
	cmd, ok := commands[name]
	if !ok {
		return false
	}
	if !sender.HasPermission(cmd.perm) {
		sender.SendMessage(msgNoPermission)
		deps.Log.Debug("指令權限不足",
			zap.String("sender", sender.Name()),
			zap.String("command", name),
		)
		return true
	}
	cmd.run(sender, parts[1:], deps)
	return true
}

// CommandNames 列出 HandleCommand 接受的指令，供 help 使用。
func CommandNames() []string {
	return []string{"clearlag", "antilagstats", "antilagreload"}
}

func cmdClearLag(sender Sender, _ []string, deps *Deps) {
	removed := deps.AntiLag.ForceClearAll()
	msg := fmt.Sprintf(msgClearLag, removed)
	sender.SendMessage(msg)

	broadcast := deps.AntiLag.Config().BroadcastClearLag && deps.Broadcast != nil
	if broadcast {
		deps.Broadcast.Broadcast(msg)
	}
	if deps.Bus != nil {
		event.Emit(deps.Bus, event.GroundCleared{
			Operator:  sender.Name(),
			Removed:   removed,
			Broadcast: broadcast,
		})
	}
	deps.Log.Info("手動清除地面物品",
		zap.String("operator", sender.Name()),
		zap.Int("removed", removed),
		zap.Bool("broadcast", broadcast),
	)
}

func cmdStats(sender Sender, _ []string, deps *Deps) {
	s := deps.AntiLag.Stats()
	sender.SendMessage("=== UltimateAntiLag Stats ===")
	sender.SendMessage(fmt.Sprintf("Active items being tracked: %d", s.Active))
	sender.SendMessage(fmt.Sprintf("Configured lifetime: %d seconds", s.Lifetime))
	sender.SendMessage(msgAttribution)
}

func cmdReload(sender Sender, _ []string, deps *Deps) {
	if err := deps.AntiLag.Reload(); err != nil {
		sender.SendMessage(fmt.Sprintf(msgReloadFailed, err))
		return
	}
	sender.SendMessage(msgReloaded)
}
