package monitoring

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwkjng/ai-hedge-fund-opt/pkg/types"
)

var (
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedge_fund_decisions_total",
			Help: "Trade decisions resolved, by action",
		},
		[]string{"action"},
	)

	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedge_fund_signals_total",
			Help: "Producer signals observed, by direction",
		},
		[]string{"direction"},
	)

	exclusionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedge_fund_exclusions_total",
			Help: "Per-ticker/day forced holds, by reason class",
		},
		[]string{"reason"},
	)

	portfolioValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hedge_fund_portfolio_value",
			Help: "Marked portfolio value at the latest completed day",
		},
	)
)

func init() {
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(exclusionsTotal)
	prometheus.MustRegister(portfolioValue)
}

// PrometheusRecorder implements the engine's Recorder against the process
// registry.
type PrometheusRecorder struct{}

func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{}
}

func (PrometheusRecorder) RecordDecision(action types.TradeAction) {
	decisionsTotal.WithLabelValues(action.String()).Inc()
}

func (PrometheusRecorder) RecordSignal(direction types.Direction) {
	signalsTotal.WithLabelValues(direction.String()).Inc()
}

func (PrometheusRecorder) RecordExclusion(reason string) {
	exclusionsTotal.WithLabelValues(reasonClass(reason)).Inc()
}

func (PrometheusRecorder) ObservePortfolioValue(value float64) {
	portfolioValue.Set(value)
}

// reasonClass collapses free-form exclusion text into a bounded label set.
func reasonClass(reason string) string {
	switch {
	case strings.Contains(reason, "insufficient history"):
		return "insufficient_history"
	case strings.Contains(reason, "data gap"), strings.Contains(reason, "no price"):
		return "data_gap"
	default:
		return "other"
	}
}

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
