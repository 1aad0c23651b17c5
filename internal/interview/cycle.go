package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oralhq/interview-gateway/internal/metrics"
	"github.com/oralhq/interview-gateway/internal/session"
)

// ErrMaxQuestions is returned when a session is already at its question cap.
var ErrMaxQuestions = errors.New("maximum questions reached")

// GeneratedQuestion is the structured output of a question generation call.
type GeneratedQuestion struct {
	Text           string
	Rationale      string
	ExpectedTopics []string
}

// GeneratedEvaluation is the structured output of an evaluation call.
type GeneratedEvaluation struct {
	TechnicalDepth  float64
	Clarity         float64
	Originality     float64
	Understanding   float64
	Strengths       []string
	Improvements    []string
	Notes           map[string]string
	Recommendations []string
}

// Generator is the language-generation backend consumed by the engine.
// A failed or malformed call returns an error; the engine collapses it to
// the documented fallback and never propagates it outward.
type Generator interface {
	GenerateQuestion(ctx context.Context, contextText string, questionType session.QuestionType, questionsAsked int) (*GeneratedQuestion, error)
	GenerateEvaluation(ctx context.Context, contextText string) (*GeneratedEvaluation, error)
}

// EventSink receives session activity notifications for live observers.
type EventSink interface {
	Publish(eventType, sessionID string)
}

// Config bounds the question cycle and weights the evaluation.
type Config struct {
	MaxQuestions int
	Weights      Weights
	// GenTimeout bounds each generation backend call; a timeout routes
	// into the same fallback path as any other backend failure.
	GenTimeout time.Duration
}

// Engine drives the question/answer loop and the final evaluation for
// sessions owned by the store.
type Engine struct {
	store  *session.Store
	gen    Generator
	cfg    Config
	events EventSink
}

// NewEngine creates an engine. events may be nil.
func NewEngine(store *session.Store, gen Generator, cfg Config, events EventSink) *Engine {
	if cfg.GenTimeout <= 0 {
		cfg.GenTimeout = 60 * time.Second
	}
	return &Engine{store: store, gen: gen, cfg: cfg, events: events}
}

func (e *Engine) publish(eventType, sessionID string) {
	if e.events != nil {
		e.events.Publish(eventType, sessionID)
	}
}

// fallbackQuestion is the fixed context-free question used when the
// generation backend is unavailable or returns an unusable payload.
func fallbackQuestion() *GeneratedQuestion {
	return &GeneratedQuestion{
		Text:           "Can you explain the main technical challenge you faced in this project?",
		Rationale:      "Fallback question",
		ExpectedTopics: []string{"challenges", "problem-solving"},
	}
}

// NextQuestion generates and appends the session's next question, returning
// the question and the updated question count. The whole cycle, including
// the backend call, runs under the session's lock so concurrent calls
// against one session cannot double-assign an ordinal. Backend failure
// never escapes: the fallback question is appended instead.
func (e *Engine) NextQuestion(ctx context.Context, sessionID string, includeFollowUp bool) (session.Question, int, error) {
	var (
		q     session.Question
		total int
	)
	err := e.store.Update(sessionID, func(s *session.Session) error {
		if len(s.Questions) >= e.cfg.MaxQuestions {
			return ErrMaxQuestions
		}

		qType := e.selectType(s, includeFollowUp)
		contextText := BuildQuestionContext(s)

		start := time.Now()
		genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenTimeout)
		gq, genErr := e.gen.GenerateQuestion(genCtx, contextText, qType, len(s.Questions))
		cancel()
		metrics.StageDuration.WithLabelValues("question").Observe(time.Since(start).Seconds())

		if genErr != nil {
			slog.Error("question generation failed, using fallback", "session", s.ID, "error", genErr)
			metrics.GenerationFallbacks.WithLabelValues("question").Inc()
			gq = fallbackQuestion()
			qType = session.QuestionInitial
		}

		// Ordinals advance even on the fallback path and are never reused.
		q = session.Question{
			ID:             fmt.Sprintf("%s_q%d", s.ID, len(s.Questions)+1),
			Text:           gq.Text,
			Type:           qType,
			Timestamp:      time.Now().UTC(),
			Rationale:      gq.Rationale,
			ExpectedTopics: gq.ExpectedTopics,
		}
		s.Questions = append(s.Questions, q)
		total = len(s.Questions)
		return nil
	})
	if err != nil {
		return session.Question{}, 0, err
	}

	metrics.QuestionsGenerated.WithLabelValues(string(q.Type)).Inc()
	slog.Info("question generated", "session", sessionID, "question", q.ID, "type", q.Type)
	e.publish("question", sessionID)
	return q, total, nil
}

// selectType picks the next question's type. The first question is always
// Initial. Afterwards, FollowUp is selected only when the caller allows it
// and the most recent question has an answer the policy finds lacking.
func (e *Engine) selectType(s *session.Session, includeFollowUp bool) session.QuestionType {
	if len(s.Questions) == 0 || !includeFollowUp {
		return session.QuestionInitial
	}
	last := s.Questions[len(s.Questions)-1]
	answer := s.AnswerFor(last.ID)
	if answer != nil && ShouldFollowUp(answer.Text, last.ExpectedTopics) {
		return session.QuestionFollowUp
	}
	return session.QuestionInitial
}

// SubmitAnswer records an answer against an existing question.
func (e *Engine) SubmitAnswer(sessionID, questionID, text string, duration float64) error {
	err := e.store.Update(sessionID, func(s *session.Session) error {
		if s.QuestionByID(questionID) == nil {
			return session.ErrQuestionNotFound
		}
		if s.AnswerFor(questionID) != nil {
			return session.ErrAlreadyAnswered
		}
		s.Answers = append(s.Answers, session.Answer{
			QuestionID: questionID,
			Text:       text,
			Timestamp:  time.Now().UTC(),
			Duration:   duration,
		})
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("answer submitted", "session", sessionID, "question", questionID)
	e.publish("answer", sessionID)
	return nil
}

// AppendScreen appends screen evidence to the session.
func (e *Engine) AppendScreen(sessionID string, ev session.ScreenEvidence) error {
	err := e.store.Update(sessionID, func(s *session.Session) error {
		s.ScreenEvidence = append(s.ScreenEvidence, ev)
		return nil
	})
	if err != nil {
		return err
	}
	metrics.EvidenceAppended.WithLabelValues("screen").Inc()
	e.publish("screen", sessionID)
	return nil
}

// AppendAudio appends a transcribed speech segment to the session.
func (e *Engine) AppendAudio(sessionID string, ev session.AudioEvidence) error {
	err := e.store.Update(sessionID, func(s *session.Session) error {
		s.AudioEvidence = append(s.AudioEvidence, ev)
		return nil
	})
	if err != nil {
		return err
	}
	metrics.EvidenceAppended.WithLabelValues("audio").Inc()
	e.publish("audio", sessionID)
	return nil
}
