// Package narrative turns strike results into one-line descriptions.
package narrative

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duel/internal/game/combat"
)

// StrikeHook is the Lua global consulted before the built-in wording.
const StrikeHook = "narrate_strike"

// HookCaller dispatches a named Lua hook. *scripting.Manager satisfies it.
type HookCaller interface {
	CallHook(hook string, args ...lua.LValue) (lua.LValue, error)
}

var damageVerbs = []struct {
	maxDamage int
	verb      string
}{
	{0, "misses"},
	{2, "barely scratches"},
	{4, "grazes"},
	{6, "nicks"},
	{10, "hits"},
	{14, "hits hard"},
	{19, "pummels"},
	{24, "thrashes"},
	{30, "mauls"},
	{40, "decimates"},
	{50, "devastates"},
	{65, "obliterates"},
	{80, "annihilates"},
}

// DamageVerb returns the third-person verb for a damage amount.
func DamageVerb(damage int) string {
	for _, v := range damageVerbs {
		if damage <= v.maxDamage {
			return v.verb
		}
	}
	return "does UNSPEAKABLE things to"
}

// Narrator describes strikes and outcomes.
type Narrator struct {
	hooks  HookCaller
	logger *zap.Logger
}

// New creates a Narrator. hooks may be nil, in which case only the built-in
// wording is used.
//
// Precondition: logger must be non-nil.
func New(hooks HookCaller, logger *zap.Logger) *Narrator {
	return &Narrator{hooks: hooks, logger: logger}
}

// Describe returns one line for r. names maps combatant IDs to display names;
// IDs without an entry are shown as-is.
//
// Postcondition: Returns a non-empty string.
func (n *Narrator) Describe(r combat.DamageResult, names map[string]string) string {
	attacker := displayName(r.AttackerID, names)
	defender := displayName(r.DefenderID, names)

	if line, ok := n.scripted(r, attacker, defender); ok {
		return line
	}

	line := fmt.Sprintf("%s %s %s for %d damage (%d health left).",
		attacker, DamageVerb(r.MitigatedAmount), defender, r.MitigatedAmount, r.ResultingHealth)
	if r.Roll > 1 {
		line = fmt.Sprintf("[roll %d] %s", r.Roll, line)
	}
	if r.Lethal() {
		line += fmt.Sprintf(" %s falls.", defender)
	}
	return line
}

// DescribeOutcome returns a closing line for a finished or unfinished battle.
func (n *Narrator) DescribeOutcome(state *combat.BattleState, names map[string]string) string {
	switch state.Outcome.Kind {
	case combat.Victory:
		return fmt.Sprintf("%s is victorious after %d turns.",
			displayName(state.Outcome.WinnerID, names), state.TurnCount)
	case combat.Draw:
		return fmt.Sprintf("%s and %s strike each other down. The duel is a draw.",
			displayName(state.AttackerID, names), displayName(state.DefenderID, names))
	default:
		return fmt.Sprintf("%s and %s are still standing after %d turns.",
			displayName(state.AttackerID, names), displayName(state.DefenderID, names), state.TurnCount)
	}
}

func (n *Narrator) scripted(r combat.DamageResult, attacker, defender string) (string, bool) {
	if n.hooks == nil {
		return "", false
	}
	tbl := &lua.LTable{}
	tbl.RawSetString("attacker", lua.LString(attacker))
	tbl.RawSetString("defender", lua.LString(defender))
	tbl.RawSetString("roll", lua.LNumber(r.Roll))
	tbl.RawSetString("raw", lua.LNumber(r.RawAmount))
	tbl.RawSetString("damage", lua.LNumber(r.MitigatedAmount))
	tbl.RawSetString("health", lua.LNumber(r.ResultingHealth))
	tbl.RawSetString("lethal", lua.LBool(r.Lethal()))
	tbl.RawSetString("verb", lua.LString(DamageVerb(r.MitigatedAmount)))

	ret, err := n.hooks.CallHook(StrikeHook, tbl)
	if err != nil {
		n.logger.Warn("narration hook failed", zap.Error(err))
		return "", false
	}
	s, ok := ret.(lua.LString)
	if !ok || s == "" {
		return "", false
	}
	return string(s), true
}

func displayName(id string, names map[string]string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}
