package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/duel/internal/game/combat"
)

// BattleRecord is the persisted summary of a finished or abandoned duel.
type BattleRecord struct {
	ID         string
	AttackerID string
	DefenderID string
	Mode       combat.Mode
	Outcome    combat.Outcome
	TurnCount  int
	// Seed is the dice seed when the battle is replayable; nil otherwise.
	Seed *uint64
	// Turns is the strike log in resolution order.
	Turns []combat.DamageResult
	// FinalHealth is written to the combatants table in the same transaction
	// as the battle. It is not read back by ListByCombatant.
	FinalHealth []CombatantHealth
	CreatedAt   time.Time
}

// CombatantHealth is a combatant's health at the end of a battle.
type CombatantHealth struct {
	ID     string
	Health int
}

// RecordFromState builds a BattleRecord from a resolved battle. The health of
// each combatant in finals is saved alongside it.
func RecordFromState(id string, initialAttacker, initialDefender string, state *combat.BattleState, seed *uint64, finals ...*combat.Combatant) BattleRecord {
	health := make([]CombatantHealth, 0, len(finals))
	for _, c := range finals {
		health = append(health, CombatantHealth{ID: c.ID, Health: c.Health})
	}
	return BattleRecord{
		ID:         id,
		AttackerID: initialAttacker,
		DefenderID: initialDefender,
		Mode:       state.Mode,
		Outcome:    state.Outcome,
		TurnCount:  state.TurnCount,
		Seed:       seed,
		Turns:       append([]combat.DamageResult(nil), state.Log...),
		FinalHealth: health,
	}
}

// BattleRepository records battle history.
type BattleRepository struct {
	db *pgxpool.Pool
}

// NewBattleRepository creates a BattleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleRepository(db *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{db: db}
}

// Record stores rec, its turn log and the final health of its combatants in
// one transaction.
//
// Precondition: rec.ID is non-empty and both combatants exist.
// Postcondition: Either the battle, every turn and every health update are
// stored, or nothing is. Returns ErrCombatantNotFound when a referenced
// combatant is missing.
func (r *BattleRepository) Record(ctx context.Context, rec BattleRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning battle transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, h := range rec.FinalHealth {
		tag, err := tx.Exec(ctx, `
			UPDATE combatants SET health = $2, updated_at = NOW()
			WHERE id = $1`, h.ID, h.Health,
		)
		if err != nil {
			return fmt.Errorf("saving health of %q: %w", h.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %q", ErrCombatantNotFound, h.ID)
		}
	}

	var winner *string
	if rec.Outcome.Kind == combat.Victory {
		winner = &rec.Outcome.WinnerID
	}
	var seed *int64
	if rec.Seed != nil {
		s := int64(*rec.Seed)
		seed = &s
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO battles (id, attacker_id, defender_id, mode, outcome, winner_id, turn_count, seed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.AttackerID, rec.DefenderID, rec.Mode.String(), rec.Outcome.Kind.String(),
		winner, rec.TurnCount, seed,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: battle %q references an unknown combatant", ErrCombatantNotFound, rec.ID)
		}
		return fmt.Errorf("inserting battle: %w", err)
	}

	if len(rec.Turns) > 0 {
		rows := make([][]any, len(rec.Turns))
		for i, t := range rec.Turns {
			rows[i] = []any{rec.ID, i, t.AttackerID, t.DefenderID, t.Roll, t.RawAmount, t.MitigatedAmount, t.ResultingHealth}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"battle_turns"},
			[]string{"battle_id", "seq", "attacker_id", "defender_id", "roll", "raw_amount", "mitigated_amount", "resulting_health"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("inserting battle turns: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing battle: %w", err)
	}
	return nil
}

// ListByCombatant returns every battle combatantID took part in, newest first.
// Turn logs are included.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *BattleRepository) ListByCombatant(ctx context.Context, combatantID string) ([]BattleRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, attacker_id, defender_id, mode, outcome, winner_id, turn_count, seed, created_at
		FROM battles
		WHERE attacker_id = $1 OR defender_id = $1
		ORDER BY created_at DESC, id`, combatantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing battles: %w", err)
	}

	var out []BattleRecord
	for rows.Next() {
		var (
			rec     BattleRecord
			mode    string
			outcome string
			winner  *string
			seed    *int64
		)
		if err := rows.Scan(&rec.ID, &rec.AttackerID, &rec.DefenderID, &mode, &outcome, &winner, &rec.TurnCount, &seed, &rec.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning battle: %w", err)
		}
		if rec.Mode, err = combat.ParseMode(mode); err != nil {
			rows.Close()
			return nil, fmt.Errorf("battle %q: %w", rec.ID, err)
		}
		rec.Outcome = decodeOutcome(outcome, winner)
		if seed != nil {
			s := uint64(*seed)
			rec.Seed = &s
		}
		out = append(out, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating battles: %w", err)
	}

	for i := range out {
		turns, err := r.turns(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Turns = turns
	}
	return out, nil
}

func (r *BattleRepository) turns(ctx context.Context, battleID string) ([]combat.DamageResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT attacker_id, defender_id, roll, raw_amount, mitigated_amount, resulting_health
		FROM battle_turns WHERE battle_id = $1 ORDER BY seq`, battleID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing battle turns: %w", err)
	}
	defer rows.Close()

	var out []combat.DamageResult
	for rows.Next() {
		var t combat.DamageResult
		if err := rows.Scan(&t.AttackerID, &t.DefenderID, &t.Roll, &t.RawAmount, &t.MitigatedAmount, &t.ResultingHealth); err != nil {
			return nil, fmt.Errorf("scanning battle turn: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func decodeOutcome(kind string, winner *string) combat.Outcome {
	switch kind {
	case combat.Victory.String():
		o := combat.Outcome{Kind: combat.Victory}
		if winner != nil {
			o.WinnerID = *winner
		}
		return o
	case combat.Draw.String():
		return combat.Outcome{Kind: combat.Draw}
	default:
		return combat.Outcome{Kind: combat.InProgress}
	}
}
