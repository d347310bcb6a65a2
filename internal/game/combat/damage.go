package combat

import "math"

// DieSides is the face count of the variance die.
const DieSides = 6

// DamageResult describes one strike. It is produced per turn for observability
// and is never persisted by this package.
type DamageResult struct {
	AttackerID string
	DefenderID string
	// Roll is the variance die value that scaled the attack; 1 when variance is off.
	Roll int
	// RawAmount is the attack before mitigation.
	RawAmount int
	// MitigatedAmount is the damage dealt after defense, floored at zero.
	MitigatedAmount int
	// ResultingHealth is the defender's health after the strike.
	ResultingHealth int
}

// Lethal reports whether the strike left the defender at zero health.
func (r DamageResult) Lethal() bool { return r.ResultingHealth == 0 }

// Calculator computes effective damage for an attacker/defender pair.
type Calculator struct {
	// Variance scales every attack by a 1d6 roll when true.
	Variance bool
}

// Compute returns the damage attacker would deal to defender for roll.
// It does not mutate either combatant.
//
// When Variance is off roll is ignored and recorded as 1. When Variance is on
// roll is clamped into [1, DieSides]. RawAmount saturates at math.MaxInt.
//
// Precondition: attacker and defender must be non-nil.
// Postcondition: 0 <= MitigatedAmount <= RawAmount; 0 <= ResultingHealth <= defender.Health.
func (c Calculator) Compute(attacker, defender *Combatant, roll int) DamageResult {
	if !c.Variance {
		roll = 1
	} else if roll < 1 {
		roll = 1
	} else if roll > DieSides {
		roll = DieSides
	}

	raw := math.MaxInt
	if attacker.AttackPower <= math.MaxInt/roll {
		raw = attacker.AttackPower * roll
	}
	mitigated := raw - defender.Defense
	if mitigated < 0 {
		mitigated = 0
	}

	remaining := defender.Health - mitigated
	if remaining < 0 {
		remaining = 0
	}

	return DamageResult{
		AttackerID:      attacker.ID,
		DefenderID:      defender.ID,
		Roll:            roll,
		RawAmount:       raw,
		MitigatedAmount: mitigated,
		ResultingHealth: remaining,
	}
}
