// Package archive persists completed interviews to PostgreSQL so
// evaluations survive process restarts. Live sessions stay in memory; the
// archive is written once, at evaluation time.
package archive

import "time"

// Record is one archived interview.
type Record struct {
	ID            string     `json:"id"`
	StudentName   string     `json:"student_name,omitempty"`
	ProjectTitle  string     `json:"project_title,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	QuestionCount int        `json:"question_count"`
	OverallScore  float64    `json:"overall_score"`
	ArchivedAt    time.Time  `json:"archived_at"`
}
