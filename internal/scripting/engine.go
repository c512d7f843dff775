package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for world simulation hooks.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// core first so world scripts can use its helpers
	for _, sub := range []string{"core", "world"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// WorldContext is what the drop hooks see of the world each tick.
type WorldContext struct {
	Tick        uint64
	GroundItems int // live ground items on all maps
	MapIDs      []int16
}

// DropSpec is one ground item a script wants spawned.
type DropSpec struct {
	MapID  int16
	X, Y   int32
	ItemID int32
	Count  int32
	Name   string
}

func (e *Engine) contextTable(ctx WorldContext) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("tick", lua.LNumber(ctx.Tick))
	t.RawSetString("ground_items", lua.LNumber(ctx.GroundItems))
	maps := e.vm.NewTable()
	for i, id := range ctx.MapIDs {
		maps.RawSetInt(i+1, lua.LNumber(id))
	}
	t.RawSetString("maps", maps)
	return t
}

// PlanDrops calls Lua plan_drops(ctx). A missing function or a script error
// yields no drops.
func (e *Engine) PlanDrops(ctx WorldContext) []DropSpec {
	fn := e.vm.GetGlobal("plan_drops")
	if fn == lua.LNil {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.contextTable(ctx)); err != nil {
		e.log.Error("lua plan_drops error", zap.Error(err), zap.Uint64("tick", ctx.Tick))
		return nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}
	var drops []DropSpec
	rt.ForEach(func(_, v lua.LValue) {
		row, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		d := DropSpec{
			MapID:  int16(lInt(row, "map")),
			X:      int32(lInt(row, "x")),
			Y:      int32(lInt(row, "y")),
			ItemID: int32(lInt(row, "item")),
			Count:  int32(lInt(row, "count")),
			Name:   lStr(row, "name"),
		}
		if d.ItemID <= 0 {
			return
		}
		if d.Count <= 0 {
			d.Count = 1
		}
		drops = append(drops, d)
	})
	return drops
}

// PlanPickups calls Lua plan_pickups(ctx) and returns how many ground items
// players pick up this tick. Missing function → 0.
func (e *Engine) PlanPickups(ctx WorldContext) int {
	fn := e.vm.GetGlobal("plan_pickups")
	if fn == lua.LNil {
		return 0
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.contextTable(ctx)); err != nil {
		e.log.Error("lua plan_pickups error", zap.Error(err))
		return 0
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n := int(lua.LVAsNumber(result))
	if n < 0 {
		return 0
	}
	return n
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
