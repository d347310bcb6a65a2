package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duel/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core))
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func TestManager_Load_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function test_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.Load(dir, 0))
	assert.True(t, mgr.Loaded())
	ret, err := mgr.CallHook("test_hook", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_CallHook_NotLoaded_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.False(t, mgr.Loaded())
	ret, err := mgr.CallHook("anything")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "empty.lua", `-- no functions`), 0))
	ret, err := mgr.CallHook("nonexistent_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "bad.lua", `
		function bad_hook()
			error("intentional error")
		end
	`), 0))
	ret, err := mgr.CallHook("bad_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len(), "expected Warn log for Lua runtime error")
}

func TestManager_CallHook_RunawayHookStopped(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "loop.lua", `
		function spin()
			while true do end
		end
		function ok()
			return "fine"
		end
	`), 500))
	ret, err := mgr.CallHook("spin")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())

	ret, err = mgr.CallHook("ok")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("fine"), ret)
}

func TestManager_Load_InvalidLua_KeepsPreviousVM(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "good.lua", `function v() return 1 end`), 0))
	err := mgr.Load(writeTempLua(t, "bad.lua", `this is not valid lua @@@@`), 0)
	assert.Error(t, err)

	ret, err := mgr.CallHook("v")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(1), ret)
}

func TestManager_Load_MissingDir(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.Load(filepath.Join(t.TempDir(), "nope"), 0))
}

func TestManager_Load_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0644))
	require.NoError(t, mgr.Load(dir, 0))
	ret, err := mgr.CallHook("get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_EngineLog_WritesToLogger(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "log.lua", `
		function do_log()
			engine.log("hello from lua")
		end
	`), 0))
	_, err := mgr.CallHook("do_log")
	require.NoError(t, err)

	entries := logs.FilterMessage("script log").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello from lua", entries[0].ContextMap()["msg"])
}

func TestManager_Close_ReleasesVM(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "init.lua", `function get_x() return 1 end`), 0))
	mgr.Close()
	ret, err := mgr.CallHook("get_x")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_Concurrent_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "hooks.lua", `
		function concurrent_hook(a, b)
			return a + b
		end
	`), 0))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.CallHook("concurrent_hook", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}

func TestProperty_CallHookUnknownNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "empty.lua", `x = 1`), 0))
	rapid.Check(t, func(rt *rapid.T) {
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		_, err := mgr.CallHook(hook)
		assert.NoError(rt, err)
	})
}
