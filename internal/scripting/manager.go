package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Manager owns the sandboxed VM running the fight scripts and dispatches
// hook calls to it.
//
// Manager is safe for concurrent use; calls are serialized since an LState
// is single-threaded.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager with no script loaded.
//
// Precondition: logger must be non-nil; instLimit >= 0, 0 uses DefaultInstructionLimit.
func NewManager(logger *zap.Logger, instLimit int) *Manager {
	if logger == nil {
		panic("scripting: NewManager called with nil logger")
	}
	return &Manager{instLimit: instLimit, logger: logger}
}

// Load creates a fresh sandboxed VM, registers the rolling.* module, then
// executes every *.lua file in scriptDir in lexicographic order. The
// previous VM is replaced only when every file loads.
//
// Precondition: scriptDir must be a readable directory.
func (m *Manager) Load(scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, path := range luaFiles {
		if err := Limited(L, m.instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	old := m.L
	m.L = L
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Info("fight scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Has reports whether hook is a function defined by the loaded scripts.
func (m *Manager) Has(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return false
	}
	_, ok := m.L.GetGlobal(hook).(*lua.LFunction)
	return ok
}

// CallNumber calls the global function hook with the values built by args
// and returns its first result as a number.
//
// Postcondition: ok is false when no script is loaded, the hook is not
// defined, it fails, or it returns anything but a finite number. Failures
// are logged at Warn level and never propagated.
func (m *Manager) CallNumber(hook string, args func(L *lua.LState) []lua.LValue) (value float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return 0, false
	}
	L := m.L
	fn, isFn := L.GetGlobal(hook).(*lua.LFunction)
	if !isFn {
		return 0, false
	}

	var params []lua.LValue
	if args != nil {
		params = args(L)
	}
	top := L.GetTop()
	err := Limited(L, m.instLimit, func() error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, params...)
	})
	if err != nil {
		L.SetTop(top)
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return 0, false
	}

	ret := L.Get(-1)
	L.Pop(1)
	n, isNumber := ret.(lua.LNumber)
	if !isNumber || math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
		m.logger.Warn("scripting: hook returned a non numeric value",
			zap.String("hook", hook),
			zap.String("type", ret.Type().String()),
		)
		return 0, false
	}
	return float64(n), true
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}
