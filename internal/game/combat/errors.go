package combat

import "errors"

// ErrInvalidInput is returned when a combatant or battle is constructed from
// values that violate the data-model invariants.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidState is returned when a turn is requested on a battle that has
// already reached a terminal outcome.
var ErrInvalidState = errors.New("invalid state")

// ErrTurnLimitExceeded is returned when RunToCompletion exhausts its turn cap
// without a terminal outcome.
var ErrTurnLimitExceeded = errors.New("turn limit exceeded")

// ErrCombatantBusy is returned by Engine.Begin when a combatant is already
// engaged in another active battle.
var ErrCombatantBusy = errors.New("combatant already in battle")
