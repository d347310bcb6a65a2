// Package gameserver orchestrates persisted duels: it loads combatants,
// claims them in the engine, resolves the battle, and stores the result.
package gameserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duel/internal/game/combat"
	"github.com/cory-johannsen/duel/internal/game/dice"
	"github.com/cory-johannsen/duel/internal/game/narrative"
	"github.com/cory-johannsen/duel/internal/observability"
	"github.com/cory-johannsen/duel/internal/storage/cache"
	"github.com/cory-johannsen/duel/internal/storage/postgres"
)

// CombatantStore loads persisted combatants.
// *postgres.CombatantRepository satisfies it.
type CombatantStore interface {
	GetByID(ctx context.Context, id string) (*combat.Combatant, error)
}

// BattleRecorder stores battle history and the combatants' final health
// atomically. *postgres.BattleRepository satisfies it.
type BattleRecorder interface {
	Record(ctx context.Context, rec postgres.BattleRecord) error
}

// CombatantCache is a read-through cache in front of a CombatantStore.
// *cache.CombatantCache satisfies it.
type CombatantCache interface {
	Get(ctx context.Context, id string) (*combat.Combatant, error)
	Set(ctx context.Context, c *combat.Combatant) error
	Invalidate(ctx context.Context, ids ...string) error
}

// FightRequest names the two stored combatants of a duel. The attacker
// strikes first.
type FightRequest struct {
	AttackerID string
	DefenderID string
	// Seed makes the dice replayable; nil draws from the crypto source.
	Seed *uint64
}

// FightResult is the outcome of a resolved duel.
type FightResult struct {
	BattleID string
	// Attacker and Defender carry their final health.
	Attacker *combat.Combatant
	Defender *combat.Combatant
	State    *combat.BattleState
	// Lines holds one narrated line per strike followed by the outcome line.
	Lines []string
	Rolls []dice.RollResult
}

// BattleSettings are the resolver parameters applied to every fight.
type BattleSettings struct {
	Calculator combat.Calculator
	Mode       combat.Mode
	MaxTurns   int
}

// BattleHandler runs duels between stored combatants.
//
// Precondition: engine, store, recorder, narrator and logger must be non-nil;
// cache may be nil.
type BattleHandler struct {
	engine   *combat.Engine
	store    CombatantStore
	recorder BattleRecorder
	cache    CombatantCache
	narrator *narrative.Narrator
	settings BattleSettings
	logger   *zap.Logger
}

// NewBattleHandler creates a BattleHandler.
//
// Precondition: see BattleHandler; settings.MaxTurns >= 1.
// Postcondition: Returns a non-nil BattleHandler.
func NewBattleHandler(
	engine *combat.Engine,
	store CombatantStore,
	recorder BattleRecorder,
	cache CombatantCache,
	narrator *narrative.Narrator,
	settings BattleSettings,
	logger *zap.Logger,
) *BattleHandler {
	return &BattleHandler{
		engine:   engine,
		store:    store,
		recorder: recorder,
		cache:    cache,
		narrator: narrator,
		settings: settings,
		logger:   logger,
	}
}

// Fight reserves both combatant IDs in the engine, loads the combatants,
// resolves a duel between them, then records the battle together with their
// final health. The IDs stay reserved from before the load until the record
// is written, so a concurrent fight can never resolve from stale health.
//
// A battle that exhausts MaxTurns is still saved and recorded as in progress;
// the returned error then wraps combat.ErrTurnLimitExceeded alongside a
// non-nil result.
//
// Postcondition: Returns ErrCombatantNotFound for an unknown ID,
// combat.ErrCombatantBusy if either combatant is already fighting, and
// combat.ErrInvalidInput for an invalid pair.
func (h *BattleHandler) Fight(ctx context.Context, req FightRequest) (*FightResult, error) {
	battleID := uuid.NewString()
	if err := h.engine.Reserve(battleID, req.AttackerID, req.DefenderID); err != nil {
		return nil, err
	}
	defer h.engine.End(battleID)

	attacker, err := h.load(ctx, req.AttackerID)
	if err != nil {
		return nil, err
	}
	defender, err := h.load(ctx, req.DefenderID)
	if err != nil {
		return nil, err
	}

	battle, err := h.engine.Begin(battleID, attacker, defender, h.settings.Mode)
	if err != nil {
		return nil, err
	}

	blog := observability.BattleLogger(h.logger, battleID, attacker.ID, defender.ID)
	if req.Seed != nil {
		blog = blog.With(zap.Uint64("seed", *req.Seed))
	}

	var src dice.Ranged = dice.NewCryptoSource()
	if req.Seed != nil {
		src = dice.NewSeededSource(*req.Seed)
	}
	roller := dice.NewLoggedRoller(src, blog)

	names := map[string]string{attacker.ID: attacker.Name, defender.ID: defender.Name}
	var lines []string
	resolver := combat.NewResolver(h.settings.Calculator,
		combat.WithLogger(blog),
		combat.WithTurnHook(func(_ *combat.BattleState, r combat.DamageResult) {
			lines = append(lines, h.narrator.Describe(r, names))
		}),
	)

	runErr := resolver.RunToCompletion(battle.State, battle.Combatants, roller, h.settings.MaxTurns)
	if runErr != nil && !errors.Is(runErr, combat.ErrTurnLimitExceeded) {
		return nil, runErr
	}
	lines = append(lines, h.narrator.DescribeOutcome(battle.State, names))

	if err := h.persist(ctx, battleID, attacker, defender, battle.State, req.Seed); err != nil {
		return nil, err
	}

	result := &FightResult{
		BattleID: battleID,
		Attacker: attacker,
		Defender: defender,
		State:    battle.State,
		Lines:    lines,
		Rolls:    roller.History(),
	}
	return result, runErr
}

// load returns the combatant from the cache, falling back to the store and
// populating the cache on a miss. Cache failures are logged and bypassed.
func (h *BattleHandler) load(ctx context.Context, id string) (*combat.Combatant, error) {
	if h.cache != nil {
		c, err := h.cache.Get(ctx, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("combatant cache read failed", zap.String("combatant", id), zap.Error(err))
		}
	}

	c, err := h.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading combatant %q: %w", id, err)
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, c); err != nil {
			h.logger.Warn("combatant cache write failed", zap.String("combatant", id), zap.Error(err))
		}
	}
	return c, nil
}

// persist records the battle and final health in one write, then drops the
// cached snapshots. Invalidation runs even when the write fails.
func (h *BattleHandler) persist(ctx context.Context, battleID string, attacker, defender *combat.Combatant, state *combat.BattleState, seed *uint64) error {
	rec := postgres.RecordFromState(battleID, attacker.ID, defender.ID, state, seed, attacker, defender)
	err := h.recorder.Record(ctx, rec)
	if h.cache != nil {
		if cerr := h.cache.Invalidate(ctx, attacker.ID, defender.ID); cerr != nil {
			h.logger.Warn("combatant cache invalidate failed", zap.Error(cerr))
		}
	}
	if err != nil {
		return fmt.Errorf("recording battle %s: %w", battleID, err)
	}
	return nil
}
