package system

import (
	"fmt"
	"sort"
	"strings"
	"time"

	coresys "github.com/l1jgo/antilag/internal/core/system"
	"github.com/l1jgo/antilag/internal/handler"
	"github.com/l1jgo/antilag/internal/net"
	"github.com/l1jgo/antilag/internal/permission"
	"go.uber.org/zap"
)

const maxLoginFailures = 3

// SessionSource 提供新連線與已斷線的主控台 session。
type SessionSource interface {
	NewSessions() <-chan *net.Session
	DeadSessions() <-chan uint64
}

// ConsoleSystem 讀取主控台輸入、處理登入並分派管理指令，同時實作 handler.Broadcaster。
// Phase 0 (Input).
type ConsoleSystem struct {
	source     SessionSource
	sessions   map[uint64]*net.Session
	failures   map[uint64]int
	operators  *permission.Table
	deps       *handler.Deps
	maxPerTick int
	log        *zap.Logger
}

func NewConsoleSystem(source SessionSource, operators *permission.Table, deps *handler.Deps, maxPerTick int, log *zap.Logger) *ConsoleSystem {
	if maxPerTick <= 0 {
		maxPerTick = 1
	}
	return &ConsoleSystem{
		source:     source,
		sessions:   make(map[uint64]*net.Session),
		failures:   make(map[uint64]int),
		operators:  operators,
		deps:       deps,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *ConsoleSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ConsoleSystem) Update(_ time.Duration) {
	// 接收新連線
	for {
		select {
		case sess := <-s.source.NewSessions():
			s.sessions[sess.ID] = sess
			sess.Send("UltimateAntiLag console. login <name> <password>")
		default:
			goto doneNew
		}
	}
doneNew:

	// 移除已斷線 session
	for {
		select {
		case id := <-s.source.DeadSessions():
			s.drop(id)
		default:
			goto doneDead
		}
	}
doneDead:

	// 每個 session 每 tick 最多處理 maxPerTick 行
	for id, sess := range s.sessions {
		if sess.IsClosed() {
			s.drop(id)
			continue
		}
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case line := <-sess.InQueue:
				s.handleLine(sess, line)
				if sess.IsClosed() {
					goto nextSession
				}
			default:
				goto nextSession
			}
		}
	nextSession:
	}
}

func (s *ConsoleSystem) drop(id uint64) {
	delete(s.sessions, id)
	delete(s.failures, id)
}

func (s *ConsoleSystem) handleLine(sess *net.Session, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if sess.State() == net.StateLogin {
		s.handleLogin(sess, line)
		return
	}

	sender := &sessionSender{sess: sess}
	switch strings.ToLower(strings.TrimPrefix(strings.Fields(line)[0], "/")) {
	case "quit", "exit":
		sess.Send("Bye.")
		sess.FlushOutput()
		sess.Close()
		return
	case "help":
		s.sendHelp(sender)
		return
	case "who":
		sess.Send(fmt.Sprintf("Operators online: %s", strings.Join(s.online(), ", ")))
		return
	}
	if !handler.HandleCommand(sender, line, s.deps) {
		sess.Send("Unknown command: " + strings.Fields(line)[0])
	}
}

func (s *ConsoleSystem) handleLogin(sess *net.Session, line string) {
	parts := strings.Fields(line)
	if len(parts) != 3 || !strings.EqualFold(parts[0], "login") {
		sess.Send("Please log in: login <name> <password>")
		return
	}
	op, ok := s.operators.Authenticate(parts[1], parts[2])
	if !ok {
		s.failures[sess.ID]++
		s.log.Warn("管理登入失敗", zap.Uint64("session", sess.ID), zap.String("ip", sess.IP), zap.String("name", parts[1]))
		if s.failures[sess.ID] >= maxLoginFailures {
			sess.Send("Too many failed logins.")
			sess.FlushOutput()
			sess.Close()
			return
		}
		sess.Send("Login failed.")
		return
	}
	delete(s.failures, sess.ID)
	sess.Operator = op
	sess.SetState(net.StateReady)
	sess.Send(fmt.Sprintf("Welcome, %s.", op.Name))
	s.log.Info("管理員登入", zap.Uint64("session", sess.ID), zap.String("operator", op.Name))
}

func (s *ConsoleSystem) sendHelp(sender handler.Sender) {
	sender.SendMessage("Commands: help, who, quit")
	for _, name := range handler.CommandNames() {
		sender.SendMessage("  /" + name)
	}
}

func (s *ConsoleSystem) online() []string {
	names := make([]string, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.State() == net.StateReady && sess.Operator != nil {
			names = append(names, sess.Operator.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Broadcast 傳送訊息給所有已登入的 session。
func (s *ConsoleSystem) Broadcast(msg string) {
	for _, sess := range s.sessions {
		if sess.State() == net.StateReady {
			sess.Send(msg)
		}
	}
}

// SessionCount 回傳目前追蹤中的 session 數。
func (s *ConsoleSystem) SessionCount() int { return len(s.sessions) }

// flushAll 將每個 session 的輸出緩衝交給寫入 goroutine。
func (s *ConsoleSystem) flushAll() {
	for _, sess := range s.sessions {
		sess.FlushOutput()
	}
}

// sessionSender 將已登入的 session 轉接為 handler.Sender。
type sessionSender struct {
	sess *net.Session
}

func (c *sessionSender) Name() string { return c.sess.Operator.Name }

func (c *sessionSender) HasPermission(node string) bool {
	return c.sess.Operator != nil && c.sess.Operator.HasPermission(node)
}

func (c *sessionSender) SendMessage(msg string) { c.sess.Send(msg) }

// OutputSystem 每 tick 送出一次主控台輸出緩衝。
// Phase 4 (Output).
type OutputSystem struct {
	console *ConsoleSystem
}

func NewOutputSystem(console *ConsoleSystem) *OutputSystem {
	return &OutputSystem{console: console}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.console.flushAll()
}
