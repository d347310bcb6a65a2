package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/duel/internal/game/combat"
)

// ErrCombatantNotFound is returned when a combatant lookup yields no results.
var ErrCombatantNotFound = errors.New("combatant not found")

// ErrCombatantExists is returned when creating a combatant whose ID is taken.
var ErrCombatantExists = errors.New("combatant already exists")

// CombatantRepository provides combatant persistence operations.
type CombatantRepository struct {
	db *pgxpool.Pool
}

// NewCombatantRepository creates a CombatantRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatantRepository(db *pgxpool.Pool) *CombatantRepository {
	return &CombatantRepository{db: db}
}

// Create inserts c.
//
// Precondition: c must satisfy combatant.Validate.
// Postcondition: Returns nil on success, ErrCombatantExists on a duplicate ID,
// or an error wrapping combat.ErrInvalidInput if c is invalid.
func (r *CombatantRepository) Create(ctx context.Context, c *combat.Combatant) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO combatants (id, name, health, max_health, attack_power, defense)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Health, c.MaxHealth, c.AttackPower, c.Defense,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrCombatantExists
		}
		return fmt.Errorf("inserting combatant: %w", err)
	}
	return nil
}

// GetByID retrieves a combatant by ID.
//
// Postcondition: Returns the combatant or ErrCombatantNotFound.
func (r *CombatantRepository) GetByID(ctx context.Context, id string) (*combat.Combatant, error) {
	var c combat.Combatant
	err := r.db.QueryRow(ctx, `
		SELECT id, name, health, max_health, attack_power, defense
		FROM combatants WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Health, &c.MaxHealth, &c.AttackPower, &c.Defense)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCombatantNotFound
		}
		return nil, fmt.Errorf("querying combatant: %w", err)
	}
	return &c, nil
}

// SaveHealth persists the current health of a combatant.
//
// Precondition: 0 <= health <= the stored max_health.
// Postcondition: Returns nil on success or ErrCombatantNotFound.
func (r *CombatantRepository) SaveHealth(ctx context.Context, id string, health int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE combatants SET health = $2, updated_at = NOW()
		WHERE id = $1`, id, health,
	)
	if err != nil {
		return fmt.Errorf("saving combatant health: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCombatantNotFound
	}
	return nil
}
