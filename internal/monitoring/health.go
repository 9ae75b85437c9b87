package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// RunPhase is the coarse lifecycle of the simulation behind the health
// endpoint.
type RunPhase string

const (
	PhaseIdle     RunPhase = "idle"
	PhaseRunning  RunPhase = "running"
	PhaseFinished RunPhase = "finished"
	PhaseFailed   RunPhase = "failed"
)

type HealthChecker struct {
	mu             sync.RWMutex
	started        time.Time
	phase          RunPhase
	portfolioValue float64
	errors         []string
}

type HealthStatus struct {
	Status         string    `json:"status"`
	Phase          RunPhase  `json:"phase"`
	Timestamp      time.Time `json:"timestamp"`
	PortfolioValue float64   `json:"portfolio_value"`
	Uptime         string    `json:"uptime"`
	Errors         []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		started: time.Now(),
		phase:   PhaseIdle,
		errors:  make([]string, 0),
	}
}

// MarkRunning flags the start of a simulation.
func (h *HealthChecker) MarkRunning() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phase = PhaseRunning
}

// MarkFinished records the terminal phase; a non-nil err marks the run
// failed and surfaces the message on the endpoint.
func (h *HealthChecker) MarkFinished(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.phase = PhaseFailed
		h.errors = append(h.errors, err.Error())
		return
	}
	h.phase = PhaseFinished
}

// ObserveValue notes the marked portfolio value at the latest completed day.
func (h *HealthChecker) ObserveValue(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.portfolioValue = value
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if h.phase == PhaseFailed || len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:         status,
		Phase:          h.phase,
		Timestamp:      time.Now(),
		PortfolioValue: h.portfolioValue,
		Uptime:         time.Since(h.started).String(),
		Errors:         h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
