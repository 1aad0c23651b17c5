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

	"github.com/oralhq/interview-gateway/internal/metrics"
)

// ExtractResult is the outcome of one screen analysis: the extracted text,
// the detected content kind and derived metadata.
type ExtractResult struct {
	Text        string         `json:"extracted_text"`
	ContentKind string         `json:"content_type"`
	Metadata    map[string]any `json:"metadata"`
}

// OCRClient extracts text from screen captures via a tesseract HTTP
// sidecar. Extraction failure surfaces to the caller; it is never folded
// into a default.
type OCRClient struct {
	url    string
	client *http.Client
}

// NewOCRClient creates a client for the OCR sidecar.
func NewOCRClient(url string, poolSize int) *OCRClient {
	return &OCRClient{
		url:    url,
		client: NewPooledHTTPClient(poolSize, 30*time.Second),
	}
}

// Analyze sends the image to the sidecar and classifies the extracted text.
func (c *OCRClient) Analyze(ctx context.Context, image []byte) (*ExtractResult, error) {
	start := time.Now()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "screen.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err = part.Write(image); err != nil {
		return nil, fmt.Errorf("write image data: %w", err)
	}
	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/ocr", &body)
	if err != nil {
		return nil, fmt.Errorf("create ocr request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("ocr", "http").Inc()
		return nil, fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.Errors.WithLabelValues("ocr", "status").Inc()
		return nil, fmt.Errorf("ocr status %d: %s", resp.StatusCode, respBody)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}

	metrics.StageDuration.WithLabelValues("ocr").Observe(time.Since(start).Seconds())

	kind := DetectContentKind(parsed.Text)
	meta := map[string]any{
		"text_length": len(parsed.Text),
		"line_count":  len(strings.Split(parsed.Text, "\n")),
	}
	if kind == "code" {
		snippets := extractCodeSnippets(parsed.Text)
		meta["code_snippet_count"] = len(snippets)
	}

	return &ExtractResult{Text: parsed.Text, ContentKind: kind, Metadata: meta}, nil
}

var codeIndicators = []string{
	"def ", "class ", "function", "import ", "const ", "var ",
	"return", "{", "}", "()", "=>", "public class", "private",
}

var slideIndicators = []string{
	"agenda", "outline", "introduction", "conclusion",
	"overview", "objectives", "thank you",
}

// DetectContentKind classifies extracted screen text as code, slide,
// diagram or other using indicator heuristics.
func DetectContentKind(text string) string {
	lower := strings.ToLower(text)
	for _, ind := range codeIndicators {
		if strings.Contains(lower, ind) {
			return "code"
		}
	}
	for _, ind := range slideIndicators {
		if strings.Contains(lower, ind) {
			return "slide"
		}
	}
	// Sparse text is most likely a diagram.
	if len(strings.TrimSpace(text)) < 100 && text != "" {
		return "diagram"
	}
	return "other"
}

// extractCodeSnippets pulls runs of code-looking lines out of screen text.
func extractCodeSnippets(text string) []string {
	var (
		snippets []string
		current  []string
		inBlock  bool
	)
	flush := func() {
		if len(current) > 0 {
			snippets = append(snippets, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		looksCode := strings.Contains(stripped, "def ") ||
			strings.Contains(stripped, "class ") ||
			strings.Contains(stripped, "()") ||
			strings.Contains(stripped, "{") ||
			strings.Contains(stripped, "}")

		switch {
		case looksCode:
			inBlock = true
			current = append(current, line)
		case inBlock && stripped != "" && !strings.HasPrefix(stripped, "#"):
			current = append(current, line)
		case inBlock:
			flush()
			inBlock = false
		}
	}
	flush()
	return snippets
}
