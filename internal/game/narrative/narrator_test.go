package narrative_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duel/internal/game/combat"
	"github.com/cory-johannsen/duel/internal/game/narrative"
	"github.com/cory-johannsen/duel/internal/scripting"
)

var names = map[string]string{"a": "Sir Aldric", "b": "Grub"}

type stubHooks struct {
	ret   lua.LValue
	err   error
	calls int
	arg   *lua.LTable
}

func (s *stubHooks) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	s.calls++
	if len(args) > 0 {
		s.arg, _ = args[0].(*lua.LTable)
	}
	return s.ret, s.err
}

func TestDamageVerb_Thresholds(t *testing.T) {
	cases := []struct {
		damage int
		want   string
	}{
		{0, "misses"},
		{1, "barely scratches"},
		{10, "hits"},
		{11, "hits hard"},
		{80, "annihilates"},
		{81, "does UNSPEAKABLE things to"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, narrative.DamageVerb(tc.damage), "damage=%d", tc.damage)
	}
}

func TestDescribe_BuiltIn(t *testing.T) {
	n := narrative.New(nil, zap.NewNop())
	line := n.Describe(combat.DamageResult{
		AttackerID: "a", DefenderID: "b", Roll: 1, RawAmount: 10, MitigatedAmount: 8, ResultingHealth: 42,
	}, names)
	assert.Equal(t, "Sir Aldric hits Grub for 8 damage (42 health left).", line)
}

func TestDescribe_RollAndLethal(t *testing.T) {
	n := narrative.New(nil, zap.NewNop())
	line := n.Describe(combat.DamageResult{
		AttackerID: "a", DefenderID: "b", Roll: 4, RawAmount: 40, MitigatedAmount: 35, ResultingHealth: 0,
	}, names)
	assert.Equal(t, "[roll 4] Sir Aldric decimates Grub for 35 damage (0 health left). Grub falls.", line)
}

func TestDescribe_UnknownIDsShownRaw(t *testing.T) {
	n := narrative.New(nil, zap.NewNop())
	line := n.Describe(combat.DamageResult{AttackerID: "x", DefenderID: "y", Roll: 1, ResultingHealth: 5}, nil)
	assert.Equal(t, "x misses y for 0 damage (5 health left).", line)
}

func TestDescribe_HookOverride(t *testing.T) {
	hooks := &stubHooks{ret: lua.LString("custom line")}
	n := narrative.New(hooks, zap.NewNop())
	line := n.Describe(combat.DamageResult{AttackerID: "a", DefenderID: "b", Roll: 1, MitigatedAmount: 3, ResultingHealth: 7}, names)
	assert.Equal(t, "custom line", line)
	require.NotNil(t, hooks.arg)
	assert.Equal(t, lua.LString("Sir Aldric"), hooks.arg.RawGetString("attacker"))
	assert.Equal(t, lua.LNumber(3), hooks.arg.RawGetString("damage"))
	assert.Equal(t, lua.LFalse, hooks.arg.RawGetString("lethal"))
}

func TestDescribe_HookNilOrEmptyFallsBack(t *testing.T) {
	for _, ret := range []lua.LValue{lua.LNil, lua.LString(""), lua.LNumber(5)} {
		n := narrative.New(&stubHooks{ret: ret}, zap.NewNop())
		line := n.Describe(combat.DamageResult{AttackerID: "a", DefenderID: "b", Roll: 1, ResultingHealth: 7}, names)
		assert.Equal(t, "Sir Aldric misses Grub for 0 damage (7 health left).", line)
	}
}

func TestDescribe_HookErrorLoggedAndFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := narrative.New(&stubHooks{err: errors.New("boom")}, zap.New(core))
	line := n.Describe(combat.DamageResult{AttackerID: "a", DefenderID: "b", Roll: 1, ResultingHealth: 7}, names)
	assert.Contains(t, line, "misses")
	assert.Equal(t, 1, logs.FilterMessage("narration hook failed").Len())
}

func TestDescribe_LuaScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "narrate.lua"), []byte(`
		function narrate_strike(s)
			if s.lethal then
				return s.attacker .. " ends it."
			end
			return nil
		end
	`), 0644))
	mgr := scripting.NewManager(zap.NewNop())
	t.Cleanup(mgr.Close)
	require.NoError(t, mgr.Load(dir, 0))

	n := narrative.New(mgr, zap.NewNop())
	assert.Equal(t, "Sir Aldric ends it.",
		n.Describe(combat.DamageResult{AttackerID: "a", DefenderID: "b", Roll: 1, MitigatedAmount: 9, ResultingHealth: 0}, names))
	assert.Contains(t,
		n.Describe(combat.DamageResult{AttackerID: "a", DefenderID: "b", Roll: 1, MitigatedAmount: 9, ResultingHealth: 3}, names),
		"Sir Aldric hits Grub")
}

func TestDescribeOutcome(t *testing.T) {
	n := narrative.New(nil, zap.NewNop())
	win := &combat.BattleState{AttackerID: "a", DefenderID: "b", TurnCount: 3, Outcome: combat.Outcome{Kind: combat.Victory, WinnerID: "b"}}
	assert.Equal(t, "Grub is victorious after 3 turns.", n.DescribeOutcome(win, names))

	draw := &combat.BattleState{AttackerID: "a", DefenderID: "b", Outcome: combat.Outcome{Kind: combat.Draw}}
	assert.Contains(t, n.DescribeOutcome(draw, names), "draw")

	open := &combat.BattleState{AttackerID: "a", DefenderID: "b", TurnCount: 100}
	assert.Equal(t, "Sir Aldric and Grub are still standing after 100 turns.", n.DescribeOutcome(open, names))
}

func TestProperty_DescribeNeverEmpty(t *testing.T) {
	n := narrative.New(nil, zap.NewNop())
	rapid.Check(t, func(t *rapid.T) {
		dmg := rapid.IntRange(0, 500).Draw(t, "damage")
		line := n.Describe(combat.DamageResult{AttackerID: "a", DefenderID: "b", Roll: 1, MitigatedAmount: dmg, ResultingHealth: 1}, names)
		if line == "" {
			t.Fatalf("empty narration for damage %d", dmg)
		}
		if dmg == 0 && narrative.DamageVerb(dmg) != "misses" {
			t.Fatalf("zero damage must miss")
		}
	})
}
