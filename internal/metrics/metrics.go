package metrics

import (
	"registro-ponto/internal/core/capture"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics liefert Messwerte der Erfassungspipeline und implementiert capture.Recorder
type Metrics struct {
	SessionsTotal     *prometheus.CounterVec
	LookupsTotal      *prometheus.CounterVec
	TicksTotal        prometheus.Counter
	AppendErrorsTotal prometheus.Counter
}

// New registriert alle Pipeline-Metriken bei reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ponto_capture_sessions_total",
			Help: "Total number of capture sessions by terminal state",
		}, []string{"outcome"}),
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ponto_registry_lookups_total",
			Help: "Total number of identity registry lookups by result",
		}, []string{"result"}),
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ponto_capture_ticks_total",
			Help: "Total number of capture loop iterations",
		}),
		AppendErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ponto_ledger_append_errors_total",
			Help: "Total number of failed attendance ledger appends",
		}),
	}
}

// SessionFinished zählt eine Sitzung nach ihrem Endzustand
func (m *Metrics) SessionFinished(state capture.State) {
	m.SessionsTotal.WithLabelValues(state.String()).Inc()
}

// LookupCompleted zählt eine Registry-Abfrage als Treffer oder Fehlschlag
func (m *Metrics) LookupCompleted(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.LookupsTotal.WithLabelValues(result).Inc()
}

// TickProcessed zählt einen Durchlauf der Erfassungsschleife
func (m *Metrics) TickProcessed() {
	m.TicksTotal.Inc()
}

// AppendFailed zählt einen fehlgeschlagenen Schreibvorgang ins Ledger
func (m *Metrics) AppendFailed() {
	m.AppendErrorsTotal.Inc()
}
