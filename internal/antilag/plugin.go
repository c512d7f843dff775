// Package antilag removes dropped items from the world once they have been on
// the ground longer than the configured lifetime, and backs the clearlag,
// antilagstats and antilagreload operator commands.
package antilag

import (
	"time"

	"github.com/l1jgo/antilag/internal/config"
	"github.com/l1jgo/antilag/internal/core/ecs"
	"github.com/l1jgo/antilag/internal/core/event"
	coresys "github.com/l1jgo/antilag/internal/core/system"
	"github.com/l1jgo/antilag/internal/world"
	"go.uber.org/zap"
)

// Permission nodes checked by the operator commands.
const (
	PermClearLag = "ultimateantilag.clearlag"
	PermStats    = "ultimateantilag.stats"
	PermReload   = "ultimateantilag.reload"
)

const (
	// SweepInterval is the cadence of the expiry sweep.
	SweepInterval = time.Second
	// noticeInterval is the minimum gap, in seconds, between expiry log notices.
	noticeInterval = 300
)

// Host is the slice of the world the plugin needs. Entity handles are
// non-owning: the host may destroy an entity at any time between sweeps.
type Host interface {
	Alive(id ecs.EntityID) bool
	FlagForDespawn(id ecs.EntityID) bool
	MapIDs() []int16
	EachEntity(mapID int16, fn func(ecs.EntityID, world.Kind))
}

// Stats is a read-only snapshot for antilagstats.
type Stats struct {
	Active   int
	Lifetime int
}

// Plugin owns the tracked-item registry for its enabled lifetime.
type Plugin struct {
	host    Host
	cfgPath string
	log     *zap.Logger
	now     func() time.Time

	cfg      config.AntiLag
	registry *Registry // nil while disabled

	runner     *coresys.Runner
	sweeper    *SweepSystem
	subscribed bool

	lastNotice    int64
	pendingNotice int
}

func New(host Host, cfgPath string, log *zap.Logger) *Plugin {
	return &Plugin{
		host:    host,
		cfgPath: cfgPath,
		log:     log,
		now:     time.Now,
	}
}

// Enable loads the configuration, hooks item spawns and starts the sweep.
// Calling Enable on an enabled plugin does nothing.
func (p *Plugin) Enable(bus *event.Bus, runner *coresys.Runner) {
	if p.registry != nil {
		return
	}
	if wrote, err := config.SaveDefaultAntiLag(p.cfgPath); err != nil {
		p.log.Warn("無法寫入預設設定檔", zap.String("path", p.cfgPath), zap.Error(err))
	} else if wrote {
		p.log.Info("已建立預設設定檔", zap.String("path", p.cfgPath))
	}
	cfg, err := config.LoadAntiLag(p.cfgPath)
	if err != nil {
		p.log.Warn("設定檔讀取失敗，使用預設值", zap.Error(err))
	}
	p.cfg = cfg
	p.registry = NewRegistry()
	p.lastNotice = p.now().Unix()
	p.pendingNotice = 0

	if !p.subscribed {
		event.Subscribe(bus, func(ev event.ItemSpawned) { p.Register(ev.Entity) })
		p.subscribed = true
	}
	p.runner = runner
	p.sweeper = NewSweepSystem(p)
	runner.Register(p.sweeper)

	p.log.Info("UltimateAntiLag enabled",
		zap.Int("item_lifetime", p.cfg.ItemLifetime),
		zap.Bool("broadcast_clearlag", p.cfg.BroadcastClearLag),
	)
}

// Disable stops the sweep and drops the registry. Nothing is persisted.
func (p *Plugin) Disable() {
	if p.registry == nil {
		return
	}
	if p.runner != nil {
		p.runner.Unregister(p.sweeper)
	}
	p.runner, p.sweeper = nil, nil
	p.registry = nil
	p.log.Info("UltimateAntiLag disabled")
}

func (p *Plugin) Enabled() bool { return p.registry != nil }

// Config returns the active configuration.
func (p *Plugin) Config() config.AntiLag { return p.cfg }

// Register starts tracking a freshly spawned ground item. Re-registering an
// entity restarts its clock.
func (p *Plugin) Register(id ecs.EntityID) {
	if p.registry == nil {
		return
	}
	p.registry.Put(TrackedItem{
		Entity:    id,
		SpawnTime: p.now().Unix(),
		Lifetime:  int64(p.cfg.ItemLifetime),
	})
}

// Sweep drops entries whose entity is gone and despawns entries that reached
// their lifetime. Only the latter are counted.
func (p *Plugin) Sweep() int {
	if p.registry == nil {
		return 0
	}
	now := p.now().Unix()

	var gone, expired []ecs.EntityID
	p.registry.Each(func(it TrackedItem) {
		switch {
		case !p.host.Alive(it.Entity):
			gone = append(gone, it.Entity)
		case it.Expired(now):
			p.host.FlagForDespawn(it.Entity)
			expired = append(expired, it.Entity)
		}
	})
	p.registry.Delete(gone...)
	p.registry.Delete(expired...)

	p.noteExpired(now, len(expired))
	return len(expired)
}

// noteExpired logs accumulated expiries at most once per noticeInterval.
func (p *Plugin) noteExpired(now int64, removed int) {
	p.pendingNotice += removed
	if p.pendingNotice == 0 || now-p.lastNotice < noticeInterval {
		return
	}
	p.log.Info("已清除過期地面物品",
		zap.Int("removed", p.pendingNotice),
		zap.Int64("since", p.lastNotice),
	)
	p.lastNotice = now
	p.pendingNotice = 0
}

// ForceClearAll despawns every ground item on every map, tracked or not, and
// empties the registry. Returns how many entities were despawned.
func (p *Plugin) ForceClearAll() int {
	removed := 0
	for _, mapID := range p.host.MapIDs() {
		p.host.EachEntity(mapID, func(id ecs.EntityID, kind world.Kind) {
			if kind == world.KindGroundItem && p.host.FlagForDespawn(id) {
				removed++
			}
		})
	}
	if p.registry != nil {
		p.registry.Reset()
	}
	return removed
}

// Stats reports the registry size and configured lifetime.
func (p *Plugin) Stats() Stats {
	s := Stats{Lifetime: p.cfg.ItemLifetime}
	if p.registry != nil {
		s.Active = p.registry.Len()
	}
	return s
}

// Reload re-reads the config file. Entries already tracked keep the lifetime
// they were registered with. On a parse error the previous config stays.
func (p *Plugin) Reload() error {
	cfg, err := config.LoadAntiLag(p.cfgPath)
	if err != nil {
		p.log.Warn("設定檔重新載入失敗，保留原設定", zap.Error(err))
		return err
	}
	p.cfg = cfg
	p.log.Info("設定檔已重新載入",
		zap.Int("item_lifetime", cfg.ItemLifetime),
		zap.Bool("broadcast_clearlag", cfg.BroadcastClearLag),
	)
	return nil
}
