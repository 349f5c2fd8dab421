package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("modbot-engine")

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "modbot_event_duration_sec",
	Help: "Total duration of event processing",
}, []string{"type"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_events_processed",
	Help: "Number of events processed",
}, []string{"type"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_event_errors",
	Help: "Number of events which failed processing (including recovered panics)",
}, []string{"type"})

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_verdicts",
	Help: "Number of raid or spam verdicts, by trigger",
}, []string{"type", "trigger"})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_actions",
	Help: "Number of successful moderation actions",
}, []string{"action"})

var actionErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_action_errors",
	Help: "Number of failed moderation actions, by error kind",
}, []string{"action", "kind"})

var windowKeys = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "modbot_window_keys",
	Help: "Number of keys tracked in each rate window after the last janitor sweep",
}, []string{"window"})

var janitorEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_janitor_evicted",
	Help: "Number of rate window keys evicted by the janitor",
}, []string{"window"})
