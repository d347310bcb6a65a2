// Package combat implements the two-combatant duel resolver: combatants, the
// damage calculator, the battle state machine, and the resolver that drives it.
package combat

import "fmt"

// Combatant is one side of a duel.
//
// Invariant: 0 <= Health <= MaxHealth; MaxHealth >= 1; AttackPower >= 0; Defense >= 0.
type Combatant struct {
	// ID is an opaque caller-owned identifier.
	ID string
	// Name is the non-empty display name.
	Name string
	// Health is the current health; clamped at 0 on lethal damage.
	Health int
	// MaxHealth is fixed at creation.
	MaxHealth   int
	AttackPower int
	Defense     int
}

// NewCombatant builds and validates a Combatant.
//
// Postcondition: Returns a valid Combatant or an error wrapping ErrInvalidInput.
func NewCombatant(id, name string, health, maxHealth, attackPower, defense int) (*Combatant, error) {
	c := &Combatant{
		ID:          id,
		Name:        name,
		Health:      health,
		MaxHealth:   maxHealth,
		AttackPower: attackPower,
		Defense:     defense,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the Combatant invariants.
//
// Postcondition: Returns nil iff every invariant holds; otherwise an error
// wrapping ErrInvalidInput naming the first violation.
func (c *Combatant) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: combatant id must not be empty", ErrInvalidInput)
	case c.Name == "":
		return fmt.Errorf("%w: combatant %q: name must not be empty", ErrInvalidInput, c.ID)
	case c.MaxHealth < 1:
		return fmt.Errorf("%w: combatant %q: max_health must be >= 1, got %d", ErrInvalidInput, c.ID, c.MaxHealth)
	case c.Health < 0:
		return fmt.Errorf("%w: combatant %q: health must be >= 0, got %d", ErrInvalidInput, c.ID, c.Health)
	case c.Health > c.MaxHealth:
		return fmt.Errorf("%w: combatant %q: health %d exceeds max_health %d", ErrInvalidInput, c.ID, c.Health, c.MaxHealth)
	case c.AttackPower < 0:
		return fmt.Errorf("%w: combatant %q: attack_power must be >= 0, got %d", ErrInvalidInput, c.ID, c.AttackPower)
	case c.Defense < 0:
		return fmt.Errorf("%w: combatant %q: defense must be >= 0, got %d", ErrInvalidInput, c.ID, c.Defense)
	}
	return nil
}

// IsDefeated reports whether the combatant is at 0 health.
func (c *Combatant) IsDefeated() bool { return c.Health <= 0 }

// ApplyDamage reduces Health by amount, flooring at zero, and returns the new Health.
// Negative amounts are treated as zero: damage never heals.
//
// Postcondition: 0 <= Health <= MaxHealth.
func (c *Combatant) ApplyDamage(amount int) int {
	if amount > 0 {
		c.Health -= amount
	}
	if c.Health < 0 {
		c.Health = 0
	}
	return c.Health
}
