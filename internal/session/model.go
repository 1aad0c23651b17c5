// Package session holds the interview data model and the in-memory
// lifecycle store that owns every live session.
package session

import "time"

// Status is the lifecycle state of an interview session.
// Completed is terminal; Paused is a side-state driven by external callers.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// QuestionType classifies how a question was selected.
// Clarification and DeepDive are reserved values: the decision logic only
// ever selects Initial or FollowUp.
type QuestionType string

const (
	QuestionInitial       QuestionType = "initial"
	QuestionFollowUp      QuestionType = "follow_up"
	QuestionClarification QuestionType = "clarification"
	QuestionDeepDive      QuestionType = "deep_dive"
)

// ScreenEvidence is one OCR'd screen capture. Immutable once appended.
type ScreenEvidence struct {
	Timestamp     time.Time      `json:"timestamp"`
	ExtractedText string         `json:"extracted_text"`
	ContentKind   string         `json:"content_type"` // "code", "slide", "diagram", "other"
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// AudioEvidence is one transcribed speech segment. Immutable once appended.
type AudioEvidence struct {
	Timestamp     time.Time `json:"timestamp"`
	Transcription string    `json:"transcription"`
	Duration      float64   `json:"duration"` // seconds
	Confidence    *float64  `json:"confidence,omitempty"`
}

// Question is one generated interview question. The ID is derived from the
// session and the question's 1-based ordinal, e.g. "session_ab12_q3".
type Question struct {
	ID             string       `json:"id"`
	Text           string       `json:"question_text"`
	Type           QuestionType `json:"question_type"`
	Timestamp      time.Time    `json:"timestamp"`
	Rationale      string       `json:"context,omitempty"`
	ExpectedTopics []string     `json:"expected_topics"`
}

// Answer references a question already present in the same session.
// At most one answer per question.
type Answer struct {
	QuestionID string    `json:"question_id"`
	Text       string    `json:"answer_text"`
	Timestamp  time.Time `json:"timestamp"`
	Duration   float64   `json:"duration"` // spoken seconds, 0 if typed
}

// Score holds the four bounded evaluation dimensions plus the derived
// overall, all in [0,100]. Overall is always the fixed convex combination
// of the four, never an independent value.
type Score struct {
	TechnicalDepth float64 `json:"technical_depth"`
	Clarity        float64 `json:"clarity"`
	Originality    float64 `json:"originality"`
	Understanding  float64 `json:"understanding"`
	Overall        float64 `json:"overall_score"`
}

// Feedback carries the qualitative evaluation fields.
type Feedback struct {
	Strengths       []string          `json:"strengths"`
	Improvements    []string          `json:"improvements"`
	Notes           map[string]string `json:"specific_notes"`
	Recommendations []string          `json:"recommendations"`
}

// Evaluation is created once at session completion and immutable thereafter.
type Evaluation struct {
	SessionID      string    `json:"session_id"`
	Score          Score     `json:"score"`
	Feedback       Feedback  `json:"feedback"`
	Timestamp      time.Time `json:"timestamp"`
	TotalQuestions int       `json:"total_questions"`
	TotalDuration  float64   `json:"total_duration"` // seconds
}

// Session is the unit of ownership for all interview state. Nothing
// outlives its session, and sessions live exclusively in the Store.
type Session struct {
	ID              string           `json:"session_id"`
	ParticipantName string           `json:"student_name,omitempty"`
	ProjectTitle    string           `json:"project_title,omitempty"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         *time.Time       `json:"end_time,omitempty"`
	Status          Status           `json:"status"`
	ScreenEvidence  []ScreenEvidence `json:"screen_contents"`
	AudioEvidence   []AudioEvidence  `json:"audio_segments"`
	Questions       []Question       `json:"questions"`
	Answers         []Answer         `json:"answers"`
	Evaluation      *Evaluation      `json:"evaluation,omitempty"`
}

// QuestionByID returns the question with the given ID, or nil.
func (s *Session) QuestionByID(id string) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// AnswerFor returns the answer referencing the given question ID, or nil.
func (s *Session) AnswerFor(questionID string) *Answer {
	for i := range s.Answers {
		if s.Answers[i].QuestionID == questionID {
			return &s.Answers[i]
		}
	}
	return nil
}

// SpeechDuration sums all audio evidence durations in seconds.
func (s *Session) SpeechDuration() float64 {
	var total float64
	for _, seg := range s.AudioEvidence {
		total += seg.Duration
	}
	return total
}

// Clone returns a deep copy safe to use outside the store's locks.
func (s *Session) Clone() *Session {
	c := *s
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	c.ScreenEvidence = make([]ScreenEvidence, len(s.ScreenEvidence))
	for i, ev := range s.ScreenEvidence {
		c.ScreenEvidence[i] = ev
		if ev.Metadata != nil {
			m := make(map[string]any, len(ev.Metadata))
			for k, v := range ev.Metadata {
				m[k] = v
			}
			c.ScreenEvidence[i].Metadata = m
		}
	}
	c.AudioEvidence = make([]AudioEvidence, len(s.AudioEvidence))
	for i, seg := range s.AudioEvidence {
		c.AudioEvidence[i] = seg
		if seg.Confidence != nil {
			v := *seg.Confidence
			c.AudioEvidence[i].Confidence = &v
		}
	}
	c.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		c.Questions[i] = q
		c.Questions[i].ExpectedTopics = append([]string(nil), q.ExpectedTopics...)
	}
	c.Answers = append([]Answer(nil), s.Answers...)
	if s.Evaluation != nil {
		ev := *s.Evaluation
		ev.Feedback.Strengths = append([]string(nil), s.Evaluation.Feedback.Strengths...)
		ev.Feedback.Improvements = append([]string(nil), s.Evaluation.Feedback.Improvements...)
		ev.Feedback.Recommendations = append([]string(nil), s.Evaluation.Feedback.Recommendations...)
		if s.Evaluation.Feedback.Notes != nil {
			notes := make(map[string]string, len(s.Evaluation.Feedback.Notes))
			for k, v := range s.Evaluation.Feedback.Notes {
				notes[k] = v
			}
			ev.Feedback.Notes = notes
		}
		c.Evaluation = &ev
	}
	return &c
}
