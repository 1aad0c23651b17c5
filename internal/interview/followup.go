package interview

import "strings"

// minAnswerWords is the floor below which an answer is considered too
// shallow to advance, regardless of topic coverage.
const minAnswerWords = 10

// coverageThreshold is the fraction of expected topics an answer must
// mention to avoid a follow-up.
const coverageThreshold = 0.5

// ShouldFollowUp decides whether the next question should probe deeper on
// the same subject. True when the answer is under minAnswerWords words, or
// when fewer than half of the expected topics appear (case-insensitive
// substring match) in the answer. With no expected topics, coverage is
// vacuously full. Pure and deterministic.
func ShouldFollowUp(answerText string, expectedTopics []string) bool {
	if len(strings.Fields(answerText)) < minAnswerWords {
		return true
	}
	if len(expectedTopics) == 0 {
		return false
	}

	lower := strings.ToLower(answerText)
	covered := 0
	for _, topic := range expectedTopics {
		if strings.Contains(lower, strings.ToLower(topic)) {
			covered++
		}
	}
	return float64(covered)/float64(len(expectedTopics)) < coverageThreshold
}
