package dice

import "go.uber.org/zap"

// Ranged is a source of inclusive bounded integers.
type Ranged interface {
	IntRange(lo, hi int) int
}

// Roller wraps a Ranged source and a logger to provide logged rolling.
// Every roll is logged at debug level with its range and value, and the most
// recent results are kept for auditing.
type Roller struct {
	src     Ranged
	logger  *zap.Logger
	history []RollResult
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Ranged, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// IntRange rolls a value in [lo, hi], records it, and logs it.
//
// Postcondition: lo <= result <= hi.
func (r *Roller) IntRange(lo, hi int) int {
	v := r.src.IntRange(lo, hi)
	result := RollResult{Min: lo, Max: hi, Value: v}
	r.history = append(r.history, result)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression()),
		zap.Int("value", v),
	)
	return v
}

// History returns a copy of every roll made through r, oldest first.
func (r *Roller) History() []RollResult {
	out := make([]RollResult, len(r.history))
	copy(out, r.history)
	return out
}
