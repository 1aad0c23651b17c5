// Package interview implements the session orchestration core: context
// window assembly, the follow-up decision policy, the question cycle and
// the evaluation aggregator.
package interview

import (
	"fmt"
	"strings"

	"github.com/oralhq/interview-gateway/internal/session"
)

// Context window bounds. Question generation is recency-biased (last N of
// everything); evaluation is survey-biased (head window of screen content,
// full Q&A history). The asymmetry is deliberate.
const (
	recentScreenWindow = 5
	recentAudioWindow  = 5
	recentQAWindow     = 3
	evalScreenWindow   = 10

	questionTextLimit = 200
	evalTextLimit     = 150
)

// truncate bounds text to limit runes, appending an ellipsis marker only
// when something was actually cut. Empty input stays empty.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// BuildQuestionContext assembles the bounded context blob for next-question
// generation. Pure function of the session at call time; empty categories
// produce no labeled section.
func BuildQuestionContext(s *session.Session) string {
	var parts []string

	if s.ProjectTitle != "" {
		parts = append(parts, "Project: "+s.ProjectTitle)
	}

	if len(s.ScreenEvidence) > 0 {
		recent := tail(s.ScreenEvidence, recentScreenWindow)
		lines := make([]string, len(recent))
		for i, sc := range recent {
			lines[i] = fmt.Sprintf("[%s] %s", strings.ToUpper(sc.ContentKind), truncate(sc.ExtractedText, questionTextLimit))
		}
		parts = append(parts, "Recent Screen Content:\n"+strings.Join(lines, "\n"))
	}

	if len(s.AudioEvidence) > 0 {
		recent := tail(s.AudioEvidence, recentAudioWindow)
		segs := make([]string, len(recent))
		for i, seg := range recent {
			segs[i] = seg.Transcription
		}
		parts = append(parts, "Student's Recent Speech:\n"+strings.Join(segs, " "))
	}

	if pairs := qaPairs(s, tail(s.Questions, recentQAWindow)); len(pairs) > 0 {
		parts = append(parts, "Previous Q&A:\n"+strings.Join(pairs, "\n\n"))
	}

	return strings.Join(parts, "\n\n")
}

// BuildEvaluationContext assembles the full-session context blob for final
// evaluation: project overview, presentation stats, the first screens shown
// and every answered question.
func BuildEvaluationContext(s *session.Session) string {
	var parts []string

	parts = append(parts, "Project: "+orDefault(s.ProjectTitle, "Not specified"))
	parts = append(parts, "Student: "+orDefault(s.ParticipantName, "Anonymous"))

	codeScreens := 0
	for _, sc := range s.ScreenEvidence {
		if sc.ContentKind == "code" {
			codeScreens++
		}
	}
	parts = append(parts,
		"\nPresentation Overview:",
		fmt.Sprintf("- Total screens shared: %d", len(s.ScreenEvidence)),
		fmt.Sprintf("- Code demonstrations: %d", codeScreens),
		fmt.Sprintf("- Questions answered: %d", len(s.Answers)),
	)

	if len(s.ScreenEvidence) > 0 {
		parts = append(parts, "\nKey Content Shown:")
		for i, sc := range head(s.ScreenEvidence, evalScreenWindow) {
			parts = append(parts, fmt.Sprintf("%d. [%s] %s", i+1, sc.ContentKind, truncate(sc.ExtractedText, evalTextLimit)))
		}
	}

	if pairs := qaPairs(s, s.Questions); len(pairs) > 0 {
		parts = append(parts, "\nInterview Q&A:")
		for _, p := range pairs {
			parts = append(parts, "\n"+p)
		}
	}

	return strings.Join(parts, "\n")
}

// qaPairs renders "Q: ...\nA: ..." for every question in qs that has an
// answer, preserving question order.
func qaPairs(s *session.Session, qs []session.Question) []string {
	var pairs []string
	for _, q := range qs {
		if a := s.AnswerFor(q.ID); a != nil {
			pairs = append(pairs, "Q: "+q.Text+"\nA: "+a.Text)
		}
	}
	return pairs
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func head[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
