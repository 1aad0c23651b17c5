// Package pipeline holds the HTTP adapters for the external capabilities:
// the generation backends, the OCR sidecar and the whisper transcription
// sidecar.
package pipeline

import (
	"context"
	"time"

	"github.com/oralhq/interview-gateway/internal/metrics"
)

// ChatClient produces a single completion from a system and user prompt.
// The interview engine never streams; every call is one bounded request.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ChatOptions are the sampling knobs shared by all chat backends.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMRouter dispatches to the configured chat backend by engine name.
type LLMRouter struct {
	*Router[ChatClient]
}

// NewLLMRouter creates a router with registered chat backends and a
// fallback default.
func NewLLMRouter(backends map[string]ChatClient, fallback string) *LLMRouter {
	return &LLMRouter{Router: NewRouter(backends, fallback)}
}

// Complete routes to the named backend and runs the completion.
func (r *LLMRouter) Complete(ctx context.Context, engine, systemPrompt, userPrompt string) (string, error) {
	backend, err := r.Route(engine)
	if err != nil {
		return "", err
	}
	return backend.Complete(ctx, systemPrompt, userPrompt)
}

// observeLLM records stage latency and errors for one backend call.
func observeLLM(start time.Time, err error) {
	metrics.StageDuration.WithLabelValues("llm").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Errors.WithLabelValues("llm", "http").Inc()
	}
}
