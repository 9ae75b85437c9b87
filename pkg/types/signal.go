package types

// Direction is a producer's directional opinion on a ticker.
type Direction int

const (
	DirectionNeutral Direction = iota
	DirectionBullish
	DirectionBearish
)

func (d Direction) String() string {
	switch d {
	case DirectionBullish:
		return "BULLISH"
	case DirectionBearish:
		return "BEARISH"
	case DirectionNeutral:
		return "NEUTRAL"
	default:
		return "UNKNOWN"
	}
}

// Signal is one producer's opinion for one ticker on one date.
// Instances are value types and never mutated after production.
type Signal struct {
	SourceID   string
	Ticker     string
	Direction  Direction
	Confidence float64 // [0,1]; out-of-range values are clamped by the decider
	Rationale  string
	Metrics    map[string]float64
}

// Vote converts the signal into a numeric vote:
// bullish = +confidence, bearish = -confidence, neutral = 0.
// Confidence outside [0,1] is clamped, not rejected.
func (s Signal) Vote() float64 {
	c := s.Confidence
	if c < 0 {
		c = 0
	} else if c > 1 {
		c = 1
	}
	switch s.Direction {
	case DirectionBullish:
		return c
	case DirectionBearish:
		return -c
	default:
		return 0
	}
}
