package main

import (
	"os"
	"strconv"
	"time"

	"github.com/oralhq/interview-gateway/internal/interview"
)

type config struct {
	port string

	// generation backend
	llmEngine      string // "anthropic", "openai" or "ollama"
	llmMaxTokens   int
	llmTemperature float64
	llmTimeout     time.Duration
	llmPoolSize    int

	anthropicAPIKey string
	anthropicURL    string
	anthropicModel  string
	openaiAPIKey    string
	openaiBaseURL   string
	openaiModel     string
	ollamaURL       string
	ollamaModel     string

	// capability sidecars
	ocrURL      string
	ocrPoolSize int
	sttURL      string
	sttPoolSize int

	// interview policy
	maxQuestions int
	weights      interview.Weights

	// session lifecycle
	sessionTTL    time.Duration
	sweepInterval time.Duration

	// optional durable archive
	databaseURL string
}

func loadConfig() config {
	return config{
		port: envStr("GATEWAY_PORT", "8000"),

		llmEngine:      envStr("LLM_ENGINE", "anthropic"),
		llmMaxTokens:   envInt("LLM_MAX_TOKENS", 4096),
		llmTemperature: envFloat("LLM_TEMPERATURE", 0.7),
		llmTimeout:     time.Duration(envInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		llmPoolSize:    envInt("LLM_POOL_SIZE", 20),

		anthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		anthropicURL:    envStr("ANTHROPIC_URL", "https://api.anthropic.com"),
		anthropicModel:  envStr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		openaiAPIKey:    envStr("OPENAI_API_KEY", ""),
		openaiBaseURL:   envStr("OPENAI_BASE_URL", ""),
		openaiModel:     envStr("OPENAI_MODEL", "gpt-4o"),
		ollamaURL:       envStr("OLLAMA_URL", "http://localhost:11434"),
		ollamaModel:     envStr("OLLAMA_MODEL", "llama3.2:3b"),

		ocrURL:      envStr("OCR_URL", "http://localhost:5200"),
		ocrPoolSize: envInt("OCR_POOL_SIZE", 10),
		sttURL:      envStr("WHISPER_SERVER_URL", "http://localhost:5100"),
		sttPoolSize: envInt("STT_POOL_SIZE", 10),

		maxQuestions: envInt("MAX_QUESTIONS", 10),
		weights: interview.Weights{
			TechnicalDepth: envFloat("WEIGHT_TECHNICAL_DEPTH", 0.30),
			Clarity:        envFloat("WEIGHT_CLARITY", 0.25),
			Originality:    envFloat("WEIGHT_ORIGINALITY", 0.25),
			Understanding:  envFloat("WEIGHT_UNDERSTANDING", 0.20),
		},

		sessionTTL:    time.Duration(envInt("SESSION_TIMEOUT_SECONDS", 3600)) * time.Second,
		sweepInterval: time.Duration(envInt("SWEEP_INTERVAL_SECONDS", 300)) * time.Second,

		databaseURL: envStr("DATABASE_URL", ""),
	}
}

func envStr(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}
