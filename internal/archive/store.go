package archive

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver

	"github.com/oralhq/interview-gateway/internal/session"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const maxInterviews = 500

// Store persists completed interviews to PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to the archive database at connStr and applies migrations.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("archive open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err = row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := db.Exec(string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := db.Exec(`INSERT INTO schema_version (version) VALUES ($1)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives a completed session with its evaluation and prunes the
// oldest interviews beyond the retention cap.
func (s *Store) Save(sess *session.Session, ev *session.Evaluation) error {
	evalJSON, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal evaluation: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO interviews (id, student_name, project_title, started_at, ended_at, question_count, overall_score, evaluation, archived_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			question_count = EXCLUDED.question_count,
			overall_score = EXCLUDED.overall_score,
			evaluation = EXCLUDED.evaluation,
			archived_at = EXCLUDED.archived_at`,
		sess.ID, sess.ParticipantName, sess.ProjectTitle, sess.StartTime.UTC(), sess.EndTime,
		ev.TotalQuestions, ev.Score.Overall, evalJSON, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`DELETE FROM interviews WHERE id NOT IN (SELECT id FROM interviews ORDER BY archived_at DESC LIMIT $1)`,
		maxInterviews,
	)
	return err
}

// List returns archived interviews newest first, with the total count.
func (s *Store) List(limit, offset int) ([]Record, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM interviews`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT id, student_name, project_title, started_at, ended_at, question_count, overall_score, archived_at
		FROM interviews
		ORDER BY archived_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			endedAt sql.NullTime
		)
		if err = rows.Scan(&rec.ID, &rec.StudentName, &rec.ProjectTitle, &rec.StartedAt, &endedAt, &rec.QuestionCount, &rec.OverallScore, &rec.ArchivedAt); err != nil {
			return nil, 0, err
		}
		if endedAt.Valid {
			rec.EndedAt = &endedAt.Time
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// Get returns one archived interview with its full evaluation.
func (s *Store) Get(id string) (*Record, *session.Evaluation, error) {
	var (
		rec      Record
		endedAt  sql.NullTime
		evalJSON []byte
	)
	err := s.db.QueryRow(
		`SELECT id, student_name, project_title, started_at, ended_at, question_count, overall_score, evaluation, archived_at
		 FROM interviews WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.StudentName, &rec.ProjectTitle, &rec.StartedAt, &endedAt, &rec.QuestionCount, &rec.OverallScore, &evalJSON, &rec.ArchivedAt)
	if err != nil {
		return nil, nil, err
	}
	if endedAt.Valid {
		rec.EndedAt = &endedAt.Time
	}

	var ev session.Evaluation
	if err = json.Unmarshal(evalJSON, &ev); err != nil {
		return nil, nil, fmt.Errorf("unmarshal evaluation: %w", err)
	}
	return &rec, &ev, nil
}
