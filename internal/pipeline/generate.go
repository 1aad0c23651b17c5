package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oralhq/interview-gateway/internal/interview"
	"github.com/oralhq/interview-gateway/internal/prompts"
	"github.com/oralhq/interview-gateway/internal/session"
)

// ErrMalformed marks a backend response that cannot be parsed into the
// expected structured shape. Treated by callers exactly like an
// unavailable backend; no field-by-field recovery is attempted.
var ErrMalformed = errors.New("malformed generation response")

// Generation turns a chat backend into the interview engine's structured
// generation backend: it owns the prompts and the strict payload schema.
type Generation struct {
	llm          *LLMRouter
	engine       string
	maxQuestions int
}

// NewGeneration creates the generation adapter routing to the named engine.
func NewGeneration(llm *LLMRouter, engine string, maxQuestions int) *Generation {
	return &Generation{llm: llm, engine: engine, maxQuestions: maxQuestions}
}

var _ interview.Generator = (*Generation)(nil)

// questionPayload is the strict schema for question generation output.
type questionPayload struct {
	QuestionText   *string  `json:"question_text"`
	Context        string   `json:"context"`
	ExpectedTopics []string `json:"expected_topics"`
}

// evaluationPayload is the strict schema for evaluation output: four
// required numeric scores, three string lists, one string-to-string map.
type evaluationPayload struct {
	Scores *struct {
		TechnicalDepth *float64 `json:"technical_depth"`
		Clarity        *float64 `json:"clarity"`
		Originality    *float64 `json:"originality"`
		Understanding  *float64 `json:"understanding"`
	} `json:"scores"`
	Strengths       []string          `json:"strengths"`
	Improvements    []string          `json:"improvements"`
	SpecificNotes   map[string]string `json:"specific_notes"`
	Recommendations []string          `json:"recommendations"`
}

func (g *Generation) GenerateQuestion(ctx context.Context, contextText string, questionType session.QuestionType, questionsAsked int) (*interview.GeneratedQuestion, error) {
	raw, err := g.llm.Complete(ctx, g.engine, prompts.QuestionSystem,
		prompts.QuestionUser(contextText, string(questionType), questionsAsked, g.maxQuestions))
	if err != nil {
		return nil, fmt.Errorf("question backend: %w", err)
	}

	var payload questionPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if payload.QuestionText == nil || *payload.QuestionText == "" {
		return nil, fmt.Errorf("%w: missing question_text", ErrMalformed)
	}

	return &interview.GeneratedQuestion{
		Text:           *payload.QuestionText,
		Rationale:      payload.Context,
		ExpectedTopics: payload.ExpectedTopics,
	}, nil
}

func (g *Generation) GenerateEvaluation(ctx context.Context, contextText string) (*interview.GeneratedEvaluation, error) {
	raw, err := g.llm.Complete(ctx, g.engine, prompts.EvaluationSystem, prompts.EvaluationUser(contextText))
	if err != nil {
		return nil, fmt.Errorf("evaluation backend: %w", err)
	}

	var payload evaluationPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if payload.Scores == nil {
		return nil, fmt.Errorf("%w: missing scores", ErrMalformed)
	}
	dims := map[string]*float64{
		"technical_depth": payload.Scores.TechnicalDepth,
		"clarity":         payload.Scores.Clarity,
		"originality":     payload.Scores.Originality,
		"understanding":   payload.Scores.Understanding,
	}
	for name, v := range dims {
		if v == nil {
			return nil, fmt.Errorf("%w: missing score %s", ErrMalformed, name)
		}
		if *v < 0 || *v > 100 {
			return nil, fmt.Errorf("%w: score %s out of range: %v", ErrMalformed, name, *v)
		}
	}

	return &interview.GeneratedEvaluation{
		TechnicalDepth:  *payload.Scores.TechnicalDepth,
		Clarity:         *payload.Scores.Clarity,
		Originality:     *payload.Scores.Originality,
		Understanding:   *payload.Scores.Understanding,
		Strengths:       payload.Strengths,
		Improvements:    payload.Improvements,
		Notes:           payload.SpecificNotes,
		Recommendations: payload.Recommendations,
	}, nil
}

// extractJSON strips markdown code fences that chat models wrap around
// JSON payloads. Plain responses pass through untouched.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
		return strings.TrimSpace(text)
	}
	if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+len("```"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
		return strings.TrimSpace(text)
	}
	return text
}
