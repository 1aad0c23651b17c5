package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralhq/interview-gateway/internal/session"
)

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())

	bad := Weights{TechnicalDepth: 0.5, Clarity: 0.5, Originality: 0.5, Understanding: 0.5}
	assert.Error(t, bad.Validate())
}

func TestWeightsOverall(t *testing.T) {
	got := DefaultWeights().Overall(80, 70, 90, 60)
	assert.InDelta(t, 76.0, got, 1e-9)

	assert.InDelta(t, 100.0, DefaultWeights().Overall(100, 100, 100, 100), 1e-9)
	assert.InDelta(t, 0.0, DefaultWeights().Overall(0, 0, 0, 0), 1e-9)
}

func TestEvaluateDerivesOverall(t *testing.T) {
	gen := &stubGen{eval: &GeneratedEvaluation{
		TechnicalDepth: 80, Clarity: 70, Originality: 90, Understanding: 60,
		Strengths:       []string{"clear architecture walkthrough"},
		Improvements:    []string{"discuss failure modes"},
		Recommendations: []string{"profile the hot path"},
	}}
	eng, store := newTestEngine(gen, 10)
	sess := store.Create("Dana", "Ray Tracer")

	ev, err := eng.Evaluate(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, ev.SessionID)
	assert.InDelta(t, 80.0, ev.Score.TechnicalDepth, 1e-9)
	assert.InDelta(t, 76.0, ev.Score.Overall, 1e-9)
	assert.Equal(t, []string{"clear architecture walkthrough"}, ev.Feedback.Strengths)
}

func TestEvaluateDurationFallsBackToSpeech(t *testing.T) {
	gen := &stubGen{eval: &GeneratedEvaluation{TechnicalDepth: 50, Clarity: 50, Originality: 50, Understanding: 50}}
	eng, store := newTestEngine(gen, 10)
	sess := store.Create("", "")
	require.NoError(t, store.Update(sess.ID, func(s *session.Session) error {
		s.AudioEvidence = []session.AudioEvidence{{Duration: 2.5}, {Duration: 3.0}, {Duration: 1.5}}
		return nil
	}))

	ev, err := eng.Evaluate(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, ev.TotalDuration, 1e-9)
}

func TestEvaluateDurationPrefersWallTime(t *testing.T) {
	gen := &stubGen{eval: &GeneratedEvaluation{TechnicalDepth: 50, Clarity: 50, Originality: 50, Understanding: 50}}
	eng, store := newTestEngine(gen, 10)
	sess := store.Create("", "")
	require.NoError(t, store.Update(sess.ID, func(s *session.Session) error {
		end := s.StartTime.Add(90 * time.Second)
		s.EndTime = &end
		s.AudioEvidence = []session.AudioEvidence{{Duration: 2.5}}
		return nil
	}))

	ev, err := eng.Evaluate(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, ev.TotalDuration, 1e-9)
}

func TestEvaluateDefaultOnBackendError(t *testing.T) {
	gen := &stubGen{eErr: errors.New("backend down")}
	eng, store := newTestEngine(gen, 10)
	sess := store.Create("", "")
	require.NoError(t, store.Update(sess.ID, func(s *session.Session) error {
		s.Questions = []session.Question{{ID: sess.ID + "_q1"}, {ID: sess.ID + "_q2"}}
		s.AudioEvidence = []session.AudioEvidence{{Duration: 4.0}}
		return nil
	}))

	ev, err := eng.Evaluate(context.Background(), sess.ID)
	require.NoError(t, err)

	assert.InDelta(t, 70.0, ev.Score.TechnicalDepth, 1e-9)
	assert.InDelta(t, 70.0, ev.Score.Clarity, 1e-9)
	assert.InDelta(t, 70.0, ev.Score.Originality, 1e-9)
	assert.InDelta(t, 70.0, ev.Score.Understanding, 1e-9)
	assert.InDelta(t, 70.0, ev.Score.Overall, 1e-9)
	assert.Equal(t, []string{"Completed the presentation", "Answered questions"}, ev.Feedback.Strengths)
	assert.Equal(t, []string{"Could not generate detailed evaluation"}, ev.Feedback.Improvements)
	assert.Equal(t, map[string]string{"error": "Automatic evaluation unavailable"}, ev.Feedback.Notes)
	assert.Equal(t, []string{"Review the recording for self-assessment"}, ev.Feedback.Recommendations)
	assert.Equal(t, 2, ev.TotalQuestions)
	assert.InDelta(t, 4.0, ev.TotalDuration, 1e-9)
}

func TestEvaluateUnknownSession(t *testing.T) {
	eng, _ := newTestEngine(&stubGen{}, 10)
	_, err := eng.Evaluate(context.Background(), "session_missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestEvaluateDoesNotMutateSession(t *testing.T) {
	gen := &stubGen{eval: &GeneratedEvaluation{TechnicalDepth: 50, Clarity: 50, Originality: 50, Understanding: 50}}
	eng, store := newTestEngine(gen, 10)
	sess := store.Create("", "")

	_, err := eng.Evaluate(context.Background(), sess.ID)
	require.NoError(t, err)

	snap, err := store.Snapshot(sess.ID)
	require.NoError(t, err)
	assert.Nil(t, snap.Evaluation)
	assert.Equal(t, session.StatusActive, snap.Status)
}

func TestAnalyzeFlow(t *testing.T) {
	s := &session.Session{
		ScreenEvidence: []session.ScreenEvidence{
			{ContentKind: "code"}, {ContentKind: "code"}, {ContentKind: "slide"}, {ContentKind: "other"},
		},
		AudioEvidence: []session.AudioEvidence{{Duration: 3.0}, {Duration: 2.0}},
		Questions:     []session.Question{{ID: "q1"}, {ID: "q2"}},
		Answers: []session.Answer{
			{QuestionID: "q1", Text: "one two three four"},
			{QuestionID: "q2", Text: "five six"},
		},
	}
	sum := AnalyzeFlow(s)
	assert.Equal(t, 4, sum.TotalScreens)
	assert.Equal(t, 2, sum.CodeScreens)
	assert.Equal(t, 1, sum.SlideScreens)
	assert.InDelta(t, 5.0, sum.TotalSpeechDuration, 1e-9)
	assert.InDelta(t, 3.0, sum.AvgAnswerLength, 1e-9)
	assert.Equal(t, 2, sum.QuestionsAsked)
}

func TestRenderFeedbackSummary(t *testing.T) {
	ev := &session.Evaluation{
		Score: session.Score{TechnicalDepth: 80, Clarity: 70, Originality: 90, Understanding: 60, Overall: 76},
		Feedback: session.Feedback{
			Strengths:       []string{"solid grasp of the domain"},
			Improvements:    []string{"quantify the results"},
			Recommendations: []string{"add load tests"},
		},
	}
	out := RenderFeedbackSummary(ev)
	assert.Contains(t, out, "Overall Score: 76.0/100")
	assert.Contains(t, out, "- Technical Depth: 80.0/100")
	assert.Contains(t, out, "* solid grasp of the domain")
	assert.Contains(t, out, "Areas for Improvement:")
	assert.Contains(t, out, "* add load tests")
}
