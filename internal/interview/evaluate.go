package interview

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/oralhq/interview-gateway/internal/metrics"
	"github.com/oralhq/interview-gateway/internal/session"
)

// defaultScore is the neutral value pinned to every dimension when the
// evaluation backend is unavailable.
const defaultScore = 70.0

// Weights is the convex combination applied to the four score dimensions.
// The four must sum to 1.0.
type Weights struct {
	TechnicalDepth float64
	Clarity        float64
	Originality    float64
	Understanding  float64
}

// DefaultWeights returns the standard 30/25/25/20 rubric weighting.
func DefaultWeights() Weights {
	return Weights{
		TechnicalDepth: 0.30,
		Clarity:        0.25,
		Originality:    0.25,
		Understanding:  0.20,
	}
}

// Validate checks that the weights sum to 1.0, within float tolerance.
func (w Weights) Validate() error {
	sum := w.TechnicalDepth + w.Clarity + w.Originality + w.Understanding
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("evaluation weights sum to %v, want 1.0", sum)
	}
	return nil
}

// Overall computes the weighted overall score from the four dimensions.
func (w Weights) Overall(technical, clarity, originality, understanding float64) float64 {
	return technical*w.TechnicalDepth +
		clarity*w.Clarity +
		originality*w.Originality +
		understanding*w.Understanding
}

// Evaluate derives the session's evaluation from its current state. Each
// call re-derives scores; nothing is cached. The evaluation is returned,
// not persisted: the caller owns writing it back and completing the
// session. Backend failure never escapes — the neutral default evaluation
// is returned instead.
func (e *Engine) Evaluate(ctx context.Context, sessionID string) (*session.Evaluation, error) {
	snap, err := e.store.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}

	contextText := BuildEvaluationContext(snap)

	start := time.Now()
	genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenTimeout)
	ge, genErr := e.gen.GenerateEvaluation(genCtx, contextText)
	cancel()
	metrics.StageDuration.WithLabelValues("evaluation").Observe(time.Since(start).Seconds())

	var ev *session.Evaluation
	if genErr != nil {
		slog.Error("evaluation generation failed, using default", "session", sessionID, "error", genErr)
		metrics.GenerationFallbacks.WithLabelValues("evaluation").Inc()
		ev = defaultEvaluation(snap)
	} else {
		ev = &session.Evaluation{
			SessionID: snap.ID,
			Score: session.Score{
				TechnicalDepth: ge.TechnicalDepth,
				Clarity:        ge.Clarity,
				Originality:    ge.Originality,
				Understanding:  ge.Understanding,
				Overall:        e.cfg.Weights.Overall(ge.TechnicalDepth, ge.Clarity, ge.Originality, ge.Understanding),
			},
			Feedback: session.Feedback{
				Strengths:       ge.Strengths,
				Improvements:    ge.Improvements,
				Notes:           ge.Notes,
				Recommendations: ge.Recommendations,
			},
			Timestamp:      time.Now().UTC(),
			TotalQuestions: len(snap.Questions),
			TotalDuration:  sessionDuration(snap),
		}
	}

	metrics.EvaluationOverall.Observe(ev.Score.Overall)
	slog.Info("session evaluated", "session", sessionID, "overall", ev.Score.Overall)
	e.publish("evaluation", sessionID)
	return ev, nil
}

// sessionDuration prefers the end-minus-start wall time; sessions evaluated
// before a clean end-time transition fall back to total speech duration.
func sessionDuration(s *session.Session) float64 {
	if s.EndTime != nil && !s.StartTime.IsZero() {
		return s.EndTime.Sub(s.StartTime).Seconds()
	}
	return s.SpeechDuration()
}

func defaultEvaluation(s *session.Session) *session.Evaluation {
	return &session.Evaluation{
		SessionID: s.ID,
		Score: session.Score{
			TechnicalDepth: defaultScore,
			Clarity:        defaultScore,
			Originality:    defaultScore,
			Understanding:  defaultScore,
			Overall:        defaultScore,
		},
		Feedback: session.Feedback{
			Strengths:       []string{"Completed the presentation", "Answered questions"},
			Improvements:    []string{"Could not generate detailed evaluation"},
			Notes:           map[string]string{"error": "Automatic evaluation unavailable"},
			Recommendations: []string{"Review the recording for self-assessment"},
		},
		Timestamp:      time.Now().UTC(),
		TotalQuestions: len(s.Questions),
		TotalDuration:  s.SpeechDuration(),
	}
}
