package combat

import "fmt"

// OutcomeKind distinguishes a battle still in progress from its terminal results.
type OutcomeKind int

const (
	InProgress OutcomeKind = iota
	Victory
	Draw
)

// String returns a human-readable outcome label.
func (k OutcomeKind) String() string {
	switch k {
	case InProgress:
		return "in progress"
	case Victory:
		return "victory"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Outcome is the result of a battle. WinnerID is set only for Victory.
type Outcome struct {
	Kind     OutcomeKind
	WinnerID string
}

// Terminal reports whether no further turns may be applied.
func (o Outcome) Terminal() bool { return o.Kind != InProgress }

// String renders the outcome, e.g. "victory(a)".
func (o Outcome) String() string {
	if o.Kind == Victory {
		return fmt.Sprintf("victory(%s)", o.WinnerID)
	}
	return o.Kind.String()
}

// Mode selects how a turn is resolved.
type Mode int

const (
	// Alternating: the active attacker strikes, then roles swap. The default.
	Alternating Mode = iota
	// Simultaneous: both combatants strike in the same turn from their
	// pre-turn values, which makes a Draw possible.
	Simultaneous
)

// String returns the config spelling of the mode.
func (m Mode) String() string {
	switch m {
	case Alternating:
		return "alternating"
	case Simultaneous:
		return "simultaneous"
	default:
		return "unknown"
	}
}

// ParseMode converts the config spelling of a mode into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "alternating":
		return Alternating, nil
	case "simultaneous":
		return Simultaneous, nil
	default:
		return Alternating, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
	}
}

// BattleState is the authoritative state of one duel. It refers to its
// combatants by ID; the combatants themselves stay owned by the caller.
//
// Invariant: once Outcome.Terminal() is true the state never changes again.
type BattleState struct {
	// AttackerID is the combatant who strikes next.
	AttackerID string
	// DefenderID is the combatant who is struck next.
	DefenderID string
	// TurnCount counts completed, non-lethal turns.
	TurnCount int
	Outcome   Outcome
	Mode      Mode
	// Log holds every strike in resolution order.
	Log []DamageResult
}

// NewBattle validates both combatants and returns an in-progress state in which
// attacker strikes first.
//
// Postcondition: Returns an InProgress state, or an error wrapping
// ErrInvalidInput if either combatant is nil, invalid, already at zero health,
// or both share an ID.
func NewBattle(attacker, defender *Combatant, mode Mode) (*BattleState, error) {
	if attacker == nil || defender == nil {
		return nil, fmt.Errorf("%w: battle requires two combatants", ErrInvalidInput)
	}
	if mode != Alternating && mode != Simultaneous {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidInput, mode)
	}
	for _, c := range []*Combatant{attacker, defender} {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if c.IsDefeated() {
			return nil, fmt.Errorf("%w: combatant %q starts the battle with zero health", ErrInvalidInput, c.ID)
		}
	}
	if attacker.ID == defender.ID {
		return nil, fmt.Errorf("%w: combatant %q cannot fight itself", ErrInvalidInput, attacker.ID)
	}
	return &BattleState{
		AttackerID: attacker.ID,
		DefenderID: defender.ID,
		Outcome:    Outcome{Kind: InProgress},
		Mode:       mode,
	}, nil
}

// swap exchanges attacker and defender roles.
func (s *BattleState) swap() {
	s.AttackerID, s.DefenderID = s.DefenderID, s.AttackerID
}

// lookup finds the state's two combatants in combatants.
func (s *BattleState) lookup(combatants []*Combatant) (attacker, defender *Combatant, err error) {
	for _, c := range combatants {
		if c == nil {
			continue
		}
		switch c.ID {
		case s.AttackerID:
			attacker = c
		case s.DefenderID:
			defender = c
		}
	}
	if attacker == nil {
		return nil, nil, fmt.Errorf("%w: attacker %q not among combatants", ErrInvalidInput, s.AttackerID)
	}
	if defender == nil {
		return nil, nil, fmt.Errorf("%w: defender %q not among combatants", ErrInvalidInput, s.DefenderID)
	}
	return attacker, defender, nil
}
