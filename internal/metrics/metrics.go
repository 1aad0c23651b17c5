package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_sessions_active",
		Help: "Currently live interview sessions",
	})

	SessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_sessions_total",
		Help: "Total interview sessions started",
	})

	SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_sessions_expired_total",
		Help: "Sessions removed by the idle-expiry sweep",
	})

	QuestionsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_questions_generated_total",
		Help: "Questions generated by type",
	}, []string{"type"})

	GenerationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_generation_fallbacks_total",
		Help: "Backend failures collapsed to the default question/evaluation",
	}, []string{"stage"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "interview_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"stage"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_errors_total",
		Help: "Error counts by stage",
	}, []string{"stage", "error_type"})

	EvidenceAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_evidence_total",
		Help: "Evidence items appended by kind",
	}, []string{"kind"})

	EvaluationOverall = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_evaluation_overall_score",
		Help:    "Overall evaluation scores",
		Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})
)
