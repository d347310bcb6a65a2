package combat

import (
	"fmt"
	"sync"
)

// Battle is one active duel tracked by the Engine.
type Battle struct {
	// ID identifies the battle.
	ID string
	// Combatants holds the two participants, attacker first.
	Combatants []*Combatant
	// State is the battle's state machine.
	State *BattleState
}

// Engine tracks active battles and guarantees that a combatant takes part in
// at most one active battle at a time.
// All methods are safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	battles  map[string]*Battle
	engaged  map[string]string   // combatant ID -> battle ID
	reserved map[string][]string // battle ID -> IDs claimed by Reserve
}

// NewEngine creates an empty Engine.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine() *Engine {
	return &Engine{
		battles:  make(map[string]*Battle),
		engaged:  make(map[string]string),
		reserved: make(map[string][]string),
	}
}

// Reserve claims combatant IDs for battleID before the combatants themselves
// are loaded, so that no other battle can read or write them in between.
// Either every ID is claimed or none is. A later Begin under the same
// battleID takes over the reservation; End releases it.
//
// Postcondition: Returns ErrInvalidInput for an empty battleID or combatant
// ID, or a battleID already active or reserved; ErrCombatantBusy when any ID
// is held by another battle.
func (e *Engine) Reserve(battleID string, combatantIDs ...string) error {
	if battleID == "" {
		return fmt.Errorf("%w: battle id must not be empty", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.battles[battleID]; exists {
		return fmt.Errorf("%w: battle %q already active", ErrInvalidInput, battleID)
	}
	if _, exists := e.reserved[battleID]; exists {
		return fmt.Errorf("%w: battle %q already reserved", ErrInvalidInput, battleID)
	}
	for _, id := range combatantIDs {
		if id == "" {
			return fmt.Errorf("%w: combatant id must not be empty", ErrInvalidInput)
		}
		if other, busy := e.engaged[id]; busy {
			return fmt.Errorf("%w: %q is fighting in battle %q", ErrCombatantBusy, id, other)
		}
	}
	for _, id := range combatantIDs {
		e.engaged[id] = battleID
	}
	e.reserved[battleID] = append([]string(nil), combatantIDs...)
	return nil
}

// Begin validates the pair, claims both combatants, and registers a new battle
// under battleID in which attacker strikes first.
//
// Precondition: battleID must be non-empty.
// Postcondition: Returns the new Battle, or an error: ErrInvalidInput for a bad
// pair or an empty/duplicate battleID, ErrCombatantBusy when either combatant
// is already engaged in a different battle. IDs reserved under battleID are
// accepted.
func (e *Engine) Begin(battleID string, attacker, defender *Combatant, mode Mode) (*Battle, error) {
	if battleID == "" {
		return nil, fmt.Errorf("%w: battle id must not be empty", ErrInvalidInput)
	}
	state, err := NewBattle(attacker, defender, mode)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.battles[battleID]; exists {
		return nil, fmt.Errorf("%w: battle %q already active", ErrInvalidInput, battleID)
	}
	for _, c := range []*Combatant{attacker, defender} {
		if other, busy := e.engaged[c.ID]; busy && other != battleID {
			return nil, fmt.Errorf("%w: %q is fighting in battle %q", ErrCombatantBusy, c.ID, other)
		}
	}

	b := &Battle{
		ID:         battleID,
		Combatants: []*Combatant{attacker, defender},
		State:      state,
	}
	e.battles[battleID] = b
	e.engaged[attacker.ID] = battleID
	e.engaged[defender.ID] = battleID
	return b, nil
}

// Get returns the active battle with battleID.
//
// Postcondition: Returns (battle, true) if found, or (nil, false) otherwise.
func (e *Engine) Get(battleID string) (*Battle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.battles[battleID]
	return b, ok
}

// BattleFor returns the ID of the active battle combatantID is engaged in.
func (e *Engine) BattleFor(combatantID string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	id, ok := e.engaged[combatantID]
	return id, ok
}

// End removes battleID and releases its combatants and any reservation made
// under it. Unknown IDs are ignored.
func (e *Engine) End(battleID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	if b, ok := e.battles[battleID]; ok {
		for _, c := range b.Combatants {
			ids = append(ids, c.ID)
		}
	}
	ids = append(ids, e.reserved[battleID]...)
	for _, id := range ids {
		if e.engaged[id] == battleID {
			delete(e.engaged, id)
		}
	}
	delete(e.battles, battleID)
	delete(e.reserved, battleID)
}

// Active returns the number of active battles.
func (e *Engine) Active() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.battles)
}
