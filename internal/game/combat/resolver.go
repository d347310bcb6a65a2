package combat

import (
	"fmt"

	"go.uber.org/zap"
)

// RandomSource supplies bounded random integers.
//
// Implementations shared between battles must be safe for concurrent use.
type RandomSource interface {
	// IntRange returns a value in the inclusive range [lo, hi].
	//
	// Precondition: lo <= hi.
	IntRange(lo, hi int) int
}

// TurnHook observes every strike after its damage has been applied and logged.
// The outcome of a lethal strike is set after the hook returns.
type TurnHook func(state *BattleState, result DamageResult)

// Resolver drives a BattleState to completion, one turn at a time.
// A Resolver holds no per-battle state and may be reused across battles.
type Resolver struct {
	calc   Calculator
	logger *zap.Logger
	hook   TurnHook
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger routes per-strike debug logs and outcome info logs to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTurnHook registers hook to be called after every strike.
func WithTurnHook(hook TurnHook) Option {
	return func(r *Resolver) { r.hook = hook }
}

// NewResolver creates a Resolver that computes damage with calc.
//
// Postcondition: Returns a non-nil Resolver; logging defaults to a no-op logger.
func NewResolver(calc Calculator, opts ...Option) *Resolver {
	r := &Resolver{calc: calc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Step applies exactly one turn to state, mutating the Health of the
// combatants it names, and returns the strikes resolved during the turn.
//
// In Alternating mode the active attacker strikes once; a lethal strike ends
// the battle with Victory(attacker) and does not count as a completed turn,
// otherwise roles swap and TurnCount is incremented. In Simultaneous mode both
// combatants strike from their pre-turn values.
//
// src is consulted only when the calculator uses variance and may be nil otherwise.
//
// Precondition: combatants contains the state's attacker and defender.
// Postcondition: Returns ErrInvalidState on a terminal state without touching
// any combatant; ErrInvalidInput when a combatant is missing, already at
// zero health, or a required src is nil.
func (r *Resolver) Step(state *BattleState, combatants []*Combatant, src RandomSource) ([]DamageResult, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil battle state", ErrInvalidInput)
	}
	if state.Outcome.Terminal() {
		return nil, fmt.Errorf("%w: battle already ended in %s", ErrInvalidState, state.Outcome)
	}
	attacker, defender, err := state.lookup(combatants)
	if err != nil {
		return nil, err
	}
	for _, c := range []*Combatant{attacker, defender} {
		if c.IsDefeated() {
			return nil, fmt.Errorf("%w: combatant %q is at zero health in an unresolved battle", ErrInvalidInput, c.ID)
		}
	}
	if r.calc.Variance && src == nil {
		return nil, fmt.Errorf("%w: variance requires a random source", ErrInvalidInput)
	}

	if state.Mode == Simultaneous {
		return r.exchange(state, attacker, defender, src), nil
	}
	return []DamageResult{r.strike(state, attacker, defender, src)}, nil
}

// RunToCompletion steps state until it reaches a terminal outcome, taking at
// most maxTurns steps.
//
// Precondition: maxTurns >= 1.
// Postcondition: Returns nil with a terminal state, or ErrTurnLimitExceeded
// after exactly maxTurns steps without one. Any Step error is returned as is.
func (r *Resolver) RunToCompletion(state *BattleState, combatants []*Combatant, src RandomSource, maxTurns int) error {
	if maxTurns < 1 {
		return fmt.Errorf("%w: max_turns must be >= 1, got %d", ErrInvalidInput, maxTurns)
	}
	for i := 0; i < maxTurns; i++ {
		if _, err := r.Step(state, combatants, src); err != nil {
			return err
		}
		if state.Outcome.Terminal() {
			return nil
		}
	}
	r.logger.Warn("battle hit turn limit",
		zap.String("attacker", state.AttackerID),
		zap.String("defender", state.DefenderID),
		zap.Int("max_turns", maxTurns),
	)
	return fmt.Errorf("%w: no outcome after %d turns", ErrTurnLimitExceeded, maxTurns)
}

func (r *Resolver) roll(src RandomSource) int {
	if !r.calc.Variance {
		return 1
	}
	return src.IntRange(1, DieSides)
}

// strike resolves one alternating-mode turn.
func (r *Resolver) strike(state *BattleState, attacker, defender *Combatant, src RandomSource) DamageResult {
	res := r.calc.Compute(attacker, defender, r.roll(src))
	defender.ApplyDamage(res.MitigatedAmount)
	r.record(state, res)

	if defender.IsDefeated() {
		r.finish(state, Outcome{Kind: Victory, WinnerID: attacker.ID})
		return res
	}
	state.swap()
	state.TurnCount++
	return res
}

// exchange resolves one simultaneous-mode turn. Both results are computed
// before either is applied.
func (r *Resolver) exchange(state *BattleState, attacker, defender *Combatant, src RandomSource) []DamageResult {
	first := r.calc.Compute(attacker, defender, r.roll(src))
	second := r.calc.Compute(defender, attacker, r.roll(src))
	defender.ApplyDamage(first.MitigatedAmount)
	attacker.ApplyDamage(second.MitigatedAmount)
	r.record(state, first)
	r.record(state, second)

	switch {
	case attacker.IsDefeated() && defender.IsDefeated():
		r.finish(state, Outcome{Kind: Draw})
	case defender.IsDefeated():
		r.finish(state, Outcome{Kind: Victory, WinnerID: attacker.ID})
	case attacker.IsDefeated():
		r.finish(state, Outcome{Kind: Victory, WinnerID: defender.ID})
	default:
		state.TurnCount++
	}
	return []DamageResult{first, second}
}

func (r *Resolver) record(state *BattleState, res DamageResult) {
	state.Log = append(state.Log, res)
	r.logger.Debug("strike",
		zap.String("attacker", res.AttackerID),
		zap.String("defender", res.DefenderID),
		zap.Int("roll", res.Roll),
		zap.Int("raw", res.RawAmount),
		zap.Int("mitigated", res.MitigatedAmount),
		zap.Int("resulting_health", res.ResultingHealth),
	)
	if r.hook != nil {
		r.hook(state, res)
	}
}

func (r *Resolver) finish(state *BattleState, outcome Outcome) {
	state.Outcome = outcome
	r.logger.Info("battle resolved",
		zap.Stringer("outcome", outcome),
		zap.Int("turns", state.TurnCount),
		zap.Int("strikes", len(state.Log)),
	)
}
