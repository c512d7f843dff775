package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/antilag/internal/antilag"
	"github.com/l1jgo/antilag/internal/audit"
	"github.com/l1jgo/antilag/internal/config"
	"github.com/l1jgo/antilag/internal/core/ecs"
	"github.com/l1jgo/antilag/internal/core/event"
	coresys "github.com/l1jgo/antilag/internal/core/system"
	"github.com/l1jgo/antilag/internal/data"
	"github.com/l1jgo/antilag/internal/handler"
	gonet "github.com/l1jgo/antilag/internal/net"
	"github.com/l1jgo/antilag/internal/permission"
	"github.com/l1jgo/antilag/internal/persist"
	"github.com/l1jgo/antilag/internal/scripting"
	"github.com/l1jgo/antilag/internal/system"
	"github.com/l1jgo/antilag/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m         UltimateAntiLag  v1.0.0           \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        地面物品清理 · L1JGO 附加元件      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printSkip(msg string) {
	fmt.Printf("  \033[90m-\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("ANTILAG_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Audit sinks: compressed files and, when configured, PostgreSQL
	printSection("稽核紀錄")
	var sinks []audit.Sink
	if cfg.Audit.Dir != "" {
		sinks = append(sinks, audit.NewJSONLZstdWriter(cfg.Audit.Dir, "clearlag"))
		printOK(fmt.Sprintf("壓縮紀錄檔 %s", cfg.Audit.Dir))
	} else {
		printSkip("壓縮紀錄檔已停用")
	}

	if cfg.Database.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		err = persist.RunMigrations(ctx, db.Pool)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("資料庫遷移完成")
		sinks = append(sinks, persist.NewAuditRepo(db))
	} else {
		printSkip("資料庫已停用")
	}
	recorder := audit.NewRecorder(cfg.Audit.BufferSize, log, sinks...)
	defer recorder.Close()
	fmt.Println()

	// 4. World state
	ecsWorld := ecs.NewWorld()
	bus := event.NewBus()
	worldState := world.NewState(ecsWorld, bus)

	event.Subscribe(bus, func(e event.GroundCleared) {
		recorder.Record(audit.Entry{Operator: e.Operator, Removed: e.Removed, Broadcast: e.Broadcast})
	})

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	cleanup := system.NewCleanupSystem(ecsWorld, log)
	runner.Register(cleanup)

	// 5. Drop scripts
	printSection("腳本引擎")
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		printOK(fmt.Sprintf("Lua 腳本載入完成 (%s)", cfg.Scripting.Dir))

		var items *data.ItemTable
		if cfg.Scripting.ItemsFile != "" {
			items, err = data.LoadItemTable(cfg.Scripting.ItemsFile)
			if err != nil {
				return fmt.Errorf("item templates: %w", err)
			}
			printStat("物品模板", items.Count())
		}
		runner.Register(system.NewSpawnerSystem(engine, worldState, items, log))
	} else {
		printSkip("腳本引擎已停用")
	}
	fmt.Println()

	// 6. Plugin
	printSection("UltimateAntiLag")
	plugin := antilag.New(worldState, cfg.Plugin.ConfigPath, log)
	plugin.Enable(bus, runner)
	printStat("物品存活秒數", plugin.Config().ItemLifetime)
	printOK(fmt.Sprintf("設定檔 %s", cfg.Plugin.ConfigPath))
	fmt.Println()

	deps := &handler.Deps{
		AntiLag: plugin,
		Bus:     bus,
		Log:     log,
	}

	// 7. Operator console
	printSection("管理主控台")
	var consoleServer *gonet.Server
	if cfg.Console.Enabled {
		operators, err := permission.LoadTable(cfg.Console.OperatorsFile)
		if err != nil {
			return fmt.Errorf("operators: %w", err)
		}
		printStat("管理員帳號", operators.Count())

		codec, err := gonet.NewCodec(cfg.Console.Charset)
		if err != nil {
			return fmt.Errorf("console charset: %w", err)
		}
		consoleServer, err = gonet.NewServer(cfg.Console.BindAddress, cfg.Console.MaxSessions, cfg.Console.InQueueSize, cfg.Console.OutQueueSize, codec, log)
		if err != nil {
			return fmt.Errorf("console listener: %w", err)
		}
		go consoleServer.AcceptLoop()

		console := system.NewConsoleSystem(consoleServer, operators, deps, cfg.Console.MaxLinesPerTick, log)
		deps.Broadcast = console
		runner.Register(console)
		runner.Register(system.NewOutputSystem(console))
		printOK(fmt.Sprintf("字元編碼 %s", codec.Name()))
	} else {
		printSkip("管理主控台已停用")
	}
	fmt.Println()

	// 8. Config hot reload
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	reloadCh := make(chan struct{}, 1)
	if cfg.Plugin.AutoReload {
		go func() {
			err := config.Watch(watchCtx, cfg.Plugin.ConfigPath, log, func() {
				select {
				case reloadCh <- struct{}{}:
				default: // a reload is already pending
				}
			})
			if err != nil {
				log.Warn("設定檔監看啟動失敗", zap.Error(err))
			}
		}()
	}

	// 9. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	if consoleServer != nil {
		printReady(fmt.Sprintf("監聽位址 %s", consoleServer.Addr().String()))
	}
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case <-reloadCh:
			_ = plugin.Reload() // 結果已由 Reload 記錄
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			plugin.Disable()
			if consoleServer != nil {
				consoleServer.Shutdown()
			}
			log.Info("伺服器已停止",
				zap.Duration("uptime", time.Since(time.Unix(cfg.Server.StartTime, 0)).Round(time.Second)),
				zap.Uint64("destroyed", cleanup.Destroyed()),
				zap.Any("stores", ecsWorld.Registry().Sizes()),
			)
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
