package interview

import (
	"fmt"
	"strings"

	"github.com/oralhq/interview-gateway/internal/session"
)

// FlowSummary aggregates presentation-level stats for a session.
type FlowSummary struct {
	TotalScreens        int     `json:"total_screens"`
	CodeScreens         int     `json:"code_screens"`
	SlideScreens        int     `json:"slide_screens"`
	TotalSpeechDuration float64 `json:"total_speech_duration"`
	AvgAnswerLength     float64 `json:"avg_answer_length"` // words
	QuestionsAsked      int     `json:"questions_asked"`
}

// AnalyzeFlow derives the presentation flow summary from a session snapshot.
func AnalyzeFlow(s *session.Session) FlowSummary {
	sum := FlowSummary{
		TotalScreens:        len(s.ScreenEvidence),
		TotalSpeechDuration: s.SpeechDuration(),
		QuestionsAsked:      len(s.Questions),
	}
	for _, sc := range s.ScreenEvidence {
		switch sc.ContentKind {
		case "code":
			sum.CodeScreens++
		case "slide":
			sum.SlideScreens++
		}
	}
	if len(s.Answers) > 0 {
		words := 0
		for _, a := range s.Answers {
			words += len(strings.Fields(a.Text))
		}
		sum.AvgAnswerLength = float64(words) / float64(len(s.Answers))
	}
	return sum
}

// RenderFeedbackSummary formats an evaluation as a human-readable report.
func RenderFeedbackSummary(ev *session.Evaluation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Overall Score: %.1f/100\n", ev.Score.Overall)
	b.WriteString("\nScore Breakdown:\n")
	fmt.Fprintf(&b, "- Technical Depth: %.1f/100\n", ev.Score.TechnicalDepth)
	fmt.Fprintf(&b, "- Clarity: %.1f/100\n", ev.Score.Clarity)
	fmt.Fprintf(&b, "- Originality: %.1f/100\n", ev.Score.Originality)
	fmt.Fprintf(&b, "- Understanding: %.1f/100\n", ev.Score.Understanding)

	b.WriteString("\nStrengths:\n")
	for _, s := range ev.Feedback.Strengths {
		fmt.Fprintf(&b, "* %s\n", s)
	}
	b.WriteString("\nAreas for Improvement:\n")
	for _, s := range ev.Feedback.Improvements {
		fmt.Fprintf(&b, "* %s\n", s)
	}
	b.WriteString("\nRecommendations:\n")
	for _, s := range ev.Feedback.Recommendations {
		fmt.Fprintf(&b, "* %s\n", s)
	}

	return strings.TrimRight(b.String(), "\n")
}
