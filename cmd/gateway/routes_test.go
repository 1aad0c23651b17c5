package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralhq/interview-gateway/internal/audio"
	"github.com/oralhq/interview-gateway/internal/interview"
	"github.com/oralhq/interview-gateway/internal/pipeline"
	"github.com/oralhq/interview-gateway/internal/session"
	"github.com/oralhq/interview-gateway/internal/ws"
)

type fixedGen struct {
	question *interview.GeneratedQuestion
	eval     *interview.GeneratedEvaluation
}

func (g *fixedGen) GenerateQuestion(context.Context, string, session.QuestionType, int) (*interview.GeneratedQuestion, error) {
	return g.question, nil
}

func (g *fixedGen) GenerateEvaluation(context.Context, string) (*interview.GeneratedEvaluation, error) {
	return g.eval, nil
}

// newTestServer stands up the full HTTP surface against stub sidecars and a
// canned generation backend.
func newTestServer(t *testing.T) (*httptest.Server, *session.Store) {
	t.Helper()

	ocrSidecar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "def train(model):\n    model.fit()"})
	}))
	t.Cleanup(ocrSidecar.Close)

	sttSidecar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"text": "so here we train the model on the cleaned dataset", "language": "en", "duration": 4.0,
		})
	}))
	t.Cleanup(sttSidecar.Close)

	gen := &fixedGen{
		question: &interview.GeneratedQuestion{
			Text:           "Why did you pick this model architecture?",
			ExpectedTopics: []string{"architecture", "trade-offs"},
		},
		eval: &interview.GeneratedEvaluation{
			TechnicalDepth: 80, Clarity: 70, Originality: 90, Understanding: 60,
			Strengths:       []string{"clear data pipeline"},
			Improvements:    []string{"discuss overfitting"},
			Recommendations: []string{"hold out a test set"},
		},
	}

	store := session.NewStore()
	engine := interview.NewEngine(store, gen, interview.Config{
		MaxQuestions: 3,
		Weights:      interview.DefaultWeights(),
		GenTimeout:   time.Second,
	}, nil)

	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		store:  store,
		engine: engine,
		ocr:    pipeline.NewOCRClient(ocrSidecar.URL, 2),
		stt:    pipeline.NewSTTClient(sttSidecar.URL, 2),
		hub:    ws.NewHub(),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body map[string]any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestInterviewWorkflow(t *testing.T) {
	srv, _ := newTestServer(t)

	// Start.
	resp, body := postJSON(t, srv.URL+"/api/session/start", map[string]any{
		"student_name": "Dana", "project_title": "Churn Predictor",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID, _ := body["session_id"].(string)
	require.True(t, strings.HasPrefix(sessionID, "session_"))
	assert.Equal(t, "success", body["status"])

	// Screen evidence.
	resp, body = postJSON(t, srv.URL+"/api/screen/analyze", map[string]any{
		"session_id":   sessionID,
		"image_base64": base64.StdEncoding.EncodeToString([]byte("png bytes")),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "code", body["content_type"])

	// Audio evidence.
	wavData := audio.SamplesToWAV(make([]float32, 16000), 16000)
	resp, body = postJSON(t, srv.URL+"/api/audio/transcribe", map[string]any{
		"session_id":   sessionID,
		"audio_base64": base64.StdEncoding.EncodeToString(wavData),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "so here we train the model on the cleaned dataset", body["transcription"])
	assert.InDelta(t, 4.0, body["duration"].(float64), 1e-9)

	// First question.
	resp, body = postJSON(t, srv.URL+"/api/interview/question", map[string]any{"session_id": sessionID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	question := body["question"].(map[string]any)
	assert.Equal(t, sessionID+"_q1", question["id"])
	assert.Equal(t, "initial", question["question_type"])
	assert.EqualValues(t, 1, body["total_questions_asked"])

	// Answer.
	resp, body = postJSON(t, srv.URL+"/api/interview/answer", map[string]any{
		"session_id":  sessionID,
		"question_id": question["id"],
		"answer_text": "We compared gradient boosting against a small neural net and picked the architecture with better trade-offs on latency",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Evaluate.
	resp, body = postJSON(t, srv.URL+"/api/session/evaluate", map[string]any{"session_id": sessionID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	eval := body["evaluation"].(map[string]any)
	score := eval["score"].(map[string]any)
	assert.InDelta(t, 76.0, score["overall_score"].(float64), 1e-9)
	assert.Contains(t, body["feedback_summary"].(string), "Overall Score: 76.0/100")
	summary := body["session_summary"].(map[string]any)
	assert.Equal(t, sessionID, summary["session_id"])
	assert.EqualValues(t, 1, summary["questions_asked"])
	assert.EqualValues(t, 1, summary["screens_analyzed"])

	// State after evaluation.
	resp, body = getJSON(t, srv.URL+"/api/session/"+sessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess := body["session"].(map[string]any)
	assert.Equal(t, "completed", sess["status"])
	require.NotNil(t, sess["evaluation"])
	flow := body["flow"].(map[string]any)
	assert.EqualValues(t, 1, flow["total_screens"])
	assert.EqualValues(t, 1, flow["code_screens"])

	// List and delete.
	resp, body = getJSON(t, srv.URL+"/api/sessions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/session/"+sessionID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	resp, _ = getJSON(t, srv.URL+"/api/session/"+sessionID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuestionCapReturns400(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := postJSON(t, srv.URL+"/api/session/start", map[string]any{})
	sessionID := body["session_id"].(string)

	for i := 0; i < 3; i++ {
		resp, _ := postJSON(t, srv.URL+"/api/interview/question", map[string]any{"session_id": sessionID})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := postJSON(t, srv.URL+"/api/interview/question", map[string]any{"session_id": sessionID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Maximum questions reached", body["error"])
}

func TestUnknownSessionReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+"/api/interview/question", map[string]any{"session_id": "session_missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/session/evaluate", map[string]any{"session_id": "session_missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = getJSON(t, srv.URL+"/api/session/session_missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnswerUnknownQuestionReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := postJSON(t, srv.URL+"/api/session/start", map[string]any{})
	sessionID := body["session_id"].(string)

	resp, body := postJSON(t, srv.URL+"/api/interview/answer", map[string]any{
		"session_id":  sessionID,
		"question_id": sessionID + "_q9",
		"answer_text": "text",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Question not found", body["error"])
}

func TestDuplicateAnswerReturns409(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := postJSON(t, srv.URL+"/api/session/start", map[string]any{})
	sessionID := body["session_id"].(string)

	_, body = postJSON(t, srv.URL+"/api/interview/question", map[string]any{"session_id": sessionID})
	questionID := body["question"].(map[string]any)["id"].(string)

	resp, _ := postJSON(t, srv.URL+"/api/interview/answer", map[string]any{
		"session_id": sessionID, "question_id": questionID, "answer_text": "first",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = postJSON(t, srv.URL+"/api/interview/answer", map[string]any{
		"session_id": sessionID, "question_id": questionID, "answer_text": "second",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Question already answered", body["error"])
}

func TestStatusTransitions(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := postJSON(t, srv.URL+"/api/session/start", map[string]any{})
	sessionID := body["session_id"].(string)

	patch := func(payload map[string]any) *http.Response {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPatch, srv.URL+"/api/session/"+sessionID, bytes.NewReader(raw))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusOK, patch(map[string]any{"status": "paused"}).StatusCode)
	assert.Equal(t, http.StatusOK, patch(map[string]any{"status": "active"}).StatusCode)

	// Completed is only reachable through evaluation.
	assert.Equal(t, http.StatusBadRequest, patch(map[string]any{"status": "completed"}).StatusCode)

	resp, _ := postJSON(t, srv.URL+"/api/session/evaluate", map[string]any{"session_id": sessionID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// And is terminal once entered.
	assert.Equal(t, http.StatusBadRequest, patch(map[string]any{"status": "active"}).StatusCode)

	// Rename still works without touching status.
	assert.Equal(t, http.StatusOK, patch(map[string]any{"student_name": "Renamed"}).StatusCode)
}

func TestBadBase64Returns400(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := postJSON(t, srv.URL+"/api/session/start", map[string]any{})
	sessionID := body["session_id"].(string)

	resp, _ := postJSON(t, srv.URL+"/api/screen/analyze", map[string]any{
		"session_id": sessionID, "image_base64": "not base64!!!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestArchiveDisabled(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/api/archive/sessions")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "archive disabled", body["error"])
}

func TestRootAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "online", body["status"])

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
