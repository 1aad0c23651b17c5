package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oralhq/interview-gateway/internal/archive"
	"github.com/oralhq/interview-gateway/internal/interview"
	"github.com/oralhq/interview-gateway/internal/metrics"
	"github.com/oralhq/interview-gateway/internal/pipeline"
	"github.com/oralhq/interview-gateway/internal/session"
	"github.com/oralhq/interview-gateway/internal/ws"
)

// defaultArchiveLimit is how many archived interviews are returned when the
// caller omits the ?limit= query parameter.
const defaultArchiveLimit = 20

type deps struct {
	store   *session.Store
	engine  *interview.Engine
	ocr     *pipeline.OCRClient
	stt     *pipeline.STTClient
	hub     *ws.Hub
	archive *archive.Store
}

// registerRoutes wires all HTTP endpoints to the shared mux.
func registerRoutes(mux *http.ServeMux, d deps) {
	mux.HandleFunc("GET /", d.handleRoot)
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /ws/events", d.hub)

	mux.HandleFunc("POST /api/session/start", d.handleSessionStart)
	mux.HandleFunc("POST /api/screen/analyze", d.handleScreenAnalyze)
	mux.HandleFunc("POST /api/audio/transcribe", d.handleAudioTranscribe)
	mux.HandleFunc("POST /api/interview/question", d.handleNextQuestion)
	mux.HandleFunc("POST /api/interview/answer", d.handleSubmitAnswer)
	mux.HandleFunc("POST /api/session/evaluate", d.handleEvaluate)
	mux.HandleFunc("GET /api/sessions", d.handleListSessions)
	mux.HandleFunc("GET /api/session/{id}", d.handleGetSession)
	mux.HandleFunc("PATCH /api/session/{id}", d.handleUpdateSession)
	mux.HandleFunc("DELETE /api/session/{id}", d.handleDeleteSession)

	registerArchiveRoutes(mux, d.archive)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (d deps) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "online",
		"service":   "Interview Gateway",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (d deps) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentName  string `json:"student_name"`
		ProjectTitle string `json:"project_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", err.Error())
		return
	}

	sess := d.store.Create(req.StudentName, req.ProjectTitle)
	metrics.SessionsTotal.Inc()
	metrics.SessionsActive.Set(float64(d.store.Len()))
	d.hub.Publish("session", sess.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"status":     "success",
		"message":    "Interview session started successfully",
	})
}

func (d deps) handleScreenAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID   string `json:"session_id"`
		ImageBase64 string `json:"image_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", err.Error())
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 image", err.Error())
		return
	}
	if err = d.store.View(req.SessionID, func(*session.Session) error { return nil }); err != nil {
		writeStoreError(w, err)
		return
	}

	result, err := d.ocr.Analyze(r.Context(), image)
	if err != nil {
		slog.Error("screen analysis failed", "session", req.SessionID, "error", err)
		writeError(w, http.StatusBadGateway, "OCR analysis failed", err.Error())
		return
	}

	ev := session.ScreenEvidence{
		Timestamp:     time.Now().UTC(),
		ExtractedText: result.Text,
		ContentKind:   result.ContentKind,
		Metadata:      result.Metadata,
	}
	if err = d.engine.AppendScreen(req.SessionID, ev); err != nil {
		writeStoreError(w, err)
		return
	}

	slog.Info("screen analyzed", "session", req.SessionID, "kind", result.ContentKind, "chars", len(result.Text))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"content_type": result.ContentKind,
		"text_length":  len(result.Text),
		"metadata":     result.Metadata,
	})
}

func (d deps) handleAudioTranscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID   string `json:"session_id"`
		AudioBase64 string `json:"audio_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", err.Error())
		return
	}
	audioData, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 audio", err.Error())
		return
	}
	if err = d.store.View(req.SessionID, func(*session.Session) error { return nil }); err != nil {
		writeStoreError(w, err)
		return
	}

	result, err := d.stt.Transcribe(r.Context(), audioData)
	if err != nil {
		slog.Error("transcription failed", "session", req.SessionID, "error", err)
		writeError(w, http.StatusBadGateway, "Transcription failed", err.Error())
		return
	}

	ev := session.AudioEvidence{
		Timestamp:     time.Now().UTC(),
		Transcription: result.Text,
		Duration:      result.Duration,
		Confidence:    result.Confidence,
	}
	if err = d.engine.AppendAudio(req.SessionID, ev); err != nil {
		writeStoreError(w, err)
		return
	}

	slog.Info("audio transcribed", "session", req.SessionID, "chars", len(result.Text), "duration", result.Duration)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"transcription": result.Text,
		"duration":      result.Duration,
		"language":      result.Language,
		"keywords":      pipeline.ExtractKeywords(result.Text),
	})
}

func (d deps) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID       string `json:"session_id"`
		IncludeFollowUp *bool  `json:"include_follow_up"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", err.Error())
		return
	}
	includeFollowUp := req.IncludeFollowUp == nil || *req.IncludeFollowUp

	q, total, err := d.engine.NextQuestion(r.Context(), req.SessionID, includeFollowUp)
	if err != nil {
		if errors.Is(err, interview.ErrMaxQuestions) {
			writeError(w, http.StatusBadRequest, "Maximum questions reached", "")
			return
		}
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"question":              q,
		"total_questions_asked": total,
	})
}

func (d deps) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID  string  `json:"session_id"`
		QuestionID string  `json:"question_id"`
		AnswerText string  `json:"answer_text"`
		Duration   float64 `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", err.Error())
		return
	}

	if err := d.engine.SubmitAnswer(req.SessionID, req.QuestionID, req.AnswerText, req.Duration); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Answer recorded successfully",
	})
}

func (d deps) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", err.Error())
		return
	}

	// Complete the session before deriving the evaluation; the aggregator
	// itself never touches session status.
	err := d.store.Update(req.SessionID, func(s *session.Session) error {
		if s.Status != session.StatusCompleted {
			now := time.Now().UTC()
			s.EndTime = &now
			s.Status = session.StatusCompleted
		}
		return nil
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	ev, err := d.engine.Evaluate(r.Context(), req.SessionID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var snap *session.Session
	err = d.store.Update(req.SessionID, func(s *session.Session) error {
		s.Evaluation = ev
		snap = s.Clone()
		return nil
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if d.archive != nil {
		if archErr := d.archive.Save(snap, ev); archErr != nil {
			slog.Error("archive save failed", "session", snap.ID, "error", archErr)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"evaluation":       ev,
		"feedback_summary": interview.RenderFeedbackSummary(ev),
		"session_summary": map[string]any{
			"session_id":       snap.ID,
			"duration_minutes": ev.TotalDuration / 60,
			"questions_asked":  ev.TotalQuestions,
			"screens_analyzed": len(snap.ScreenEvidence),
			"overall_score":    ev.Score.Overall,
		},
	})
}

func (d deps) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := d.store.Snapshot(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": snap,
		"flow":    interview.AnalyzeFlow(snap),
	})
}

func (d deps) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentName  *string `json:"student_name"`
		ProjectTitle *string `json:"project_title"`
		Status       *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", err.Error())
		return
	}

	err := d.store.Update(r.PathValue("id"), func(s *session.Session) error {
		if req.Status != nil {
			next := session.Status(*req.Status)
			if !validTransition(s.Status, next) {
				return errInvalidTransition
			}
			s.Status = next
		}
		if req.StudentName != nil {
			s.ParticipantName = *req.StudentName
		}
		if req.ProjectTitle != nil {
			s.ProjectTitle = *req.ProjectTitle
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errInvalidTransition) {
			writeError(w, http.StatusBadRequest, "invalid status transition", "")
			return
		}
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session updated successfully"})
}

var errInvalidTransition = errors.New("invalid status transition")

// validTransition permits only the Active/Paused side-loop; Completed is
// entered exclusively through evaluation and is terminal.
func validTransition(from, to session.Status) bool {
	switch {
	case from == to:
		return true
	case from == session.StatusActive && to == session.StatusPaused:
		return true
	case from == session.StatusPaused && to == session.StatusActive:
		return true
	default:
		return false
	}
}

func (d deps) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := d.store.Delete(id); err != nil {
		writeStoreError(w, err)
		return
	}
	metrics.SessionsActive.Set(float64(d.store.Len()))
	d.hub.Publish("deleted", id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session deleted successfully"})
}

func (d deps) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := d.store.IDs()
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids, "count": len(ids)})
}

func registerArchiveRoutes(mux *http.ServeMux, store *archive.Store) {
	mux.HandleFunc("GET /api/archive/sessions", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusNotFound, "archive disabled", "")
			return
		}
		limit := queryInt(r, "limit", defaultArchiveLimit)
		offset := queryInt(r, "offset", 0)
		records, total, err := store.List(limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "archive list failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"interviews": records, "total": total})
	})

	mux.HandleFunc("GET /api/archive/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusNotFound, "archive disabled", "")
			return
		}
		rec, ev, err := store.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not found", "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"interview": rec, "evaluation": ev})
	})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "Session not found", "")
	case errors.Is(err, session.ErrQuestionNotFound):
		writeError(w, http.StatusNotFound, "Question not found", "")
	case errors.Is(err, session.ErrAlreadyAnswered):
		writeError(w, http.StatusConflict, "Question already answered", "")
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, map[string]any{
		"error":     msg,
		"detail":    detail,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
