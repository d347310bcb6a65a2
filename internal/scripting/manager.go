package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Manager owns one sandboxed LState and exposes hook dispatch.
//
// An LState is single-threaded; Manager serialises every call on it, so a
// Manager is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	limit  int
	logger *zap.Logger
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// Load creates a fresh sandboxed VM, registers the engine module, then
// executes every *.lua file in scriptDir in lexicographic order. A previously
// loaded VM is replaced only when every file loads.
//
// Precondition: scriptDir must be a readable directory; instLimit >= 0, where
// 0 selects DefaultInstructionLimit.
// Postcondition: Returns an error on any read or Lua load failure.
func (m *Manager) Load(scriptDir string, instLimit int) error {
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
		if err := withInstructionLimit(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		m.state.Close()
	}
	m.state = L
	m.limit = instLimit
	m.mu.Unlock()

	m.logger.Info("scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Loaded reports whether a VM is available.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if no VM
// is loaded or the hook is not defined. Lua runtime errors, including hitting
// the instruction limit, are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return lua.LNil, nil
	}
	L := m.state

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	err := withInstructionLimit(L, m.limit, func() error {
		return L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, args...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases the VM. The Manager may be reloaded afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
