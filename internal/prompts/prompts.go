// Package prompts holds the prompt text for the generation backend.
package prompts

import (
	"fmt"
	"strings"
)

const QuestionSystem = `You are an expert technical interviewer conducting a project presentation interview.
Your role is to:
1. Ask insightful, context-aware questions based on what the student is presenting
2. Probe for technical depth and understanding
3. Ask follow-up questions when answers are incomplete
4. Evaluate originality and implementation details
5. Be encouraging but thorough

Generate questions that are:
- Specific to the content shown (code, slides, diagrams)
- Appropriate for the interview stage
- Clear and focused
- Designed to reveal depth of understanding`

const EvaluationSystem = `You are an expert evaluator of student technical presentations and projects.
Your role is to provide fair, constructive, and detailed evaluation based on:

1. Technical Depth (30%): Implementation complexity, technical knowledge, problem-solving approach
2. Clarity (25%): Communication skills, explanation quality, presentation organization
3. Originality (25%): Innovation, unique approaches, creative solutions
4. Understanding (20%): Grasp of concepts, ability to answer questions, depth of knowledge

Provide scores on a 0-100 scale and detailed, constructive feedback.`

// QuestionUser renders the user prompt for a question generation call.
func QuestionUser(contextText, questionType string, questionsAsked, maxQuestions int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following presentation context, generate a %s question.\n\n", questionType)
	b.WriteString(contextText)
	fmt.Fprintf(&b, "\n\nQuestions asked so far: %d/%d\n\n", questionsAsked, maxQuestions)
	b.WriteString(`Requirements:
- Make the question specific to what you see in the screen content and hear in the speech
- If this is a follow-up, build on previous answers
- Focus on technical implementation, design decisions, or problem-solving
- Keep questions concise and clear

Return ONLY a JSON object with this structure:
{
    "question_text": "Your question here",
    "context": "Brief context explaining why you're asking this",
    "expected_topics": ["topic1", "topic2"]
}`)
	return b.String()
}

// EvaluationUser renders the user prompt for an evaluation call.
func EvaluationUser(contextText string) string {
	var b strings.Builder
	b.WriteString("Evaluate this student's project presentation:\n\n")
	b.WriteString(contextText)
	b.WriteString(`

Provide a comprehensive evaluation in the following JSON format:
{
    "scores": {
        "technical_depth": <0-100>,
        "clarity": <0-100>,
        "originality": <0-100>,
        "understanding": <0-100>
    },
    "strengths": ["strength1", "strength2", "strength3"],
    "improvements": ["improvement1", "improvement2", "improvement3"],
    "specific_notes": {
        "technical": "detailed note about technical aspects",
        "communication": "detailed note about communication",
        "innovation": "detailed note about innovation"
    },
    "recommendations": ["recommendation1", "recommendation2", "recommendation3"]
}

Be specific, fair, and constructive in your evaluation.`)
	return b.String()
}
