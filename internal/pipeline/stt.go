package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/oralhq/interview-gateway/internal/audio"
	"github.com/oralhq/interview-gateway/internal/metrics"
)

// TranscribeResult holds one transcription with its spoken duration.
type TranscribeResult struct {
	Text       string   `json:"transcription"`
	Duration   float64  `json:"duration"` // seconds
	Language   string   `json:"language"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// STTClient sends audio as multipart WAV to a whisper-compatible HTTP
// sidecar. Transcription failure surfaces to the caller; it is never
// folded into a default.
type STTClient struct {
	url      string
	endpoint string
	client   *http.Client
}

// NewSTTClient creates a client for whisper.cpp (/inference endpoint).
func NewSTTClient(url string, poolSize int) *STTClient {
	return &STTClient{
		url:      url,
		endpoint: "/inference",
		client:   NewPooledHTTPClient(poolSize, 60*time.Second),
	}
}

// Warmup sends a tiny silent clip to verify the sidecar is responsive.
func (c *STTClient) Warmup(ctx context.Context) error {
	silence := audio.SamplesToWAV(make([]float32, 16000), 16000) // 1s at 16kHz
	if _, err := c.Transcribe(ctx, silence); err != nil {
		return fmt.Errorf("whisper warmup: %w", err)
	}
	return nil
}

// Transcribe uploads WAV bytes and returns the transcript. The spoken
// duration comes from the sidecar when reported, otherwise from the WAV
// header itself.
func (c *STTClient) Transcribe(ctx context.Context, wavData []byte) (*TranscribeResult, error) {
	start := time.Now()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err = part.Write(wavData); err != nil {
		return nil, fmt.Errorf("write wav data: %w", err)
	}
	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("create whisper request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("stt", "http").Inc()
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.Errors.WithLabelValues("stt", "status").Inc()
		return nil, fmt.Errorf("whisper status %d: %s", resp.StatusCode, respBody)
	}

	var parsed struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Duration float64 `json:"duration"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}

	metrics.StageDuration.WithLabelValues("stt").Observe(time.Since(start).Seconds())

	duration := parsed.Duration
	if duration == 0 {
		if d, derr := audio.WAVDuration(wavData); derr == nil {
			duration = d
		}
	}
	language := parsed.Language
	if language == "" {
		language = "en"
	}

	return &TranscribeResult{Text: parsed.Text, Duration: duration, Language: language}, nil
}

// ExtractKeywords pulls stopword-filtered keywords out of a transcript,
// capped at 15 unique terms.
func ExtractKeywords(transcription string) []string {
	var keywords []string
	seen := make(map[string]bool)
	for _, word := range splitWords(transcription) {
		if len(word) <= 3 || stopwords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == 15 {
			break
		}
	}
	return keywords
}

func splitWords(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true,
	"this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "we": true, "they": true, "it": true,
}
