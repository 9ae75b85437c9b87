package agents

import (
	"context"
	"time"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

// SignalProducer is the shared contract for all analysis strategies. One
// call per producer per ticker per day. Implementations must be
// side-effect-free with respect to the portfolio snapshot they receive and
// deterministic for fixed underlying data.
type SignalProducer interface {
	// ID returns the stable source identifier stamped into signals.
	ID() string

	// Produce returns the producer's signal for the ticker as of the given
	// date. Data visibility is truncated at asOf by the underlying sources.
	Produce(ctx context.Context, ticker string, asOf time.Time, snapshot types.PortfolioSnapshot) (types.Signal, error)
}

// Registry holds producers in registration order. Order matters: the
// decision log and per-source weights key off producer IDs, and signals are
// aggregated in this order so replays are deterministic.
type Registry struct {
	producers []SignalProducer
	byID      map[string]SignalProducer
}

func NewRegistry(producers ...SignalProducer) *Registry {
	r := &Registry{byID: make(map[string]SignalProducer)}
	for _, p := range producers {
		r.Register(p)
	}
	return r
}

// Register appends a producer. Re-registering an ID replaces the previous
// producer in place, keeping its position.
func (r *Registry) Register(p SignalProducer) {
	if _, exists := r.byID[p.ID()]; exists {
		for i, existing := range r.producers {
			if existing.ID() == p.ID() {
				r.producers[i] = p
				break
			}
		}
	} else {
		r.producers = append(r.producers, p)
	}
	r.byID[p.ID()] = p
}

// Producers returns the ordered producer list.
func (r *Registry) Producers() []SignalProducer {
	return r.producers
}

// Get looks a producer up by ID.
func (r *Registry) Get(id string) (SignalProducer, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Len returns the number of registered producers.
func (r *Registry) Len() int {
	return len(r.producers)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// neutralSignal is the fallback when a producer cannot analyze a ticker:
// neutral direction, zero confidence, the reason in the rationale. Producer
// failures degrade to this instead of aborting the day.
func neutralSignal(sourceID, ticker, reason string) types.Signal {
	return types.Signal{
		SourceID:   sourceID,
		Ticker:     ticker,
		Direction:  types.DirectionNeutral,
		Confidence: 0,
		Rationale:  reason,
	}
}
