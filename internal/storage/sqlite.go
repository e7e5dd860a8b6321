package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/germanmitharsh/formgate/internal/models"
)

type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

func NewSQLite(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS form_submissions (
			id TEXT PRIMARY KEY,
			form_type TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			message_id TEXT NOT NULL DEFAULT '',
			provider_response TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS rate_limit_tracker (
			id TEXT PRIMARY KEY,
			identifier TEXT NOT NULL,
			form_type TEXT NOT NULL,
			submission_count INTEGER NOT NULL DEFAULT 1,
			window_start DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_type ON form_submissions(form_type, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_status ON form_submissions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_limit_window ON rate_limit_tracker(identifier, form_type, window_start)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- Submissions ---

func (s *SQLiteStorage) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO form_submissions (id, form_type, payload_json, ip_address, user_agent, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.FormType, string(sub.Payload), sub.SourceIP, sub.UserAgent, sub.Status, sub.CreatedAt, sub.UpdatedAt,
	)
	return err
}

func (s *SQLiteStorage) scanSubmission(row interface{ Scan(...interface{}) error }) (*models.Submission, error) {
	var sub models.Submission
	var payload string
	err := row.Scan(&sub.ID, &sub.FormType, &payload, &sub.SourceIP, &sub.UserAgent,
		&sub.Status, &sub.MessageID, &sub.ProviderResponse, &sub.ErrorMessage, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.Payload = []byte(payload)
	return &sub, nil
}

const submissionColumns = `id, form_type, payload_json, ip_address, user_agent, status, message_id, provider_response, error_message, created_at, updated_at`

func (s *SQLiteStorage) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM form_submissions WHERE id = ?`, id)
	sub, err := s.scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sub, err
}

func (s *SQLiteStorage) ListSubmissions(ctx context.Context, formType models.FormType, limit, offset int) ([]models.Submission, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + submissionColumns + ` FROM form_submissions`
	args := []interface{}{}
	if formType != "" {
		query += ` WHERE form_type = ?`
		args = append(args, formType)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		sub, err := s.scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStorage) MarkSubmissionSent(ctx context.Context, id, messageID, providerResponse string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE form_submissions SET status = ?, message_id = ?, provider_response = ?, updated_at = ? WHERE id = ?`,
		models.SubmissionSent, messageID, providerResponse, time.Now().UTC(), id,
	)
	return err
}

func (s *SQLiteStorage) MarkSubmissionFailed(ctx context.Context, id, errorMessage string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE form_submissions SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		models.SubmissionFailed, errorMessage, time.Now().UTC(), id,
	)
	return err
}

// --- Rate limiting ---

func (s *SQLiteStorage) CountRateLimitEvents(ctx context.Context, identifier string, formType models.FormType, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(submission_count), 0) FROM rate_limit_tracker
		 WHERE identifier = ? AND form_type = ? AND window_start >= ?`,
		identifier, formType, since,
	).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) InsertRateLimitEvent(ctx context.Context, ev *models.RateLimitEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rate_limit_tracker (id, identifier, form_type, submission_count, window_start)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.Identifier, ev.FormType, ev.Count, ev.WindowStart,
	)
	return err
}
