package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/germanmitharsh/formgate/internal/models"
)

// PostgresStorage backs the pipeline with a pgx connection pool. Production
// runs against the same Postgres schema the original Supabase deployment
// used.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

var _ Storage = (*PostgresStorage)(nil)

func NewPostgres(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS form_submissions (
			id TEXT PRIMARY KEY,
			form_type TEXT NOT NULL,
			payload_json JSONB NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			message_id TEXT NOT NULL DEFAULT '',
			provider_response TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS rate_limit_tracker (
			id TEXT PRIMARY KEY,
			identifier TEXT NOT NULL,
			form_type TEXT NOT NULL,
			submission_count INTEGER NOT NULL DEFAULT 1,
			window_start TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_type ON form_submissions(form_type, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_status ON form_submissions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_limit_window ON rate_limit_tracker(identifier, form_type, window_start)`,
	}

	for _, q := range queries {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

// --- Submissions ---

func (s *PostgresStorage) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO form_submissions (id, form_type, payload_json, ip_address, user_agent, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sub.ID, sub.FormType, string(sub.Payload), sub.SourceIP, sub.UserAgent, sub.Status, sub.CreatedAt, sub.UpdatedAt,
	)
	return err
}

func (s *PostgresStorage) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	var payload string
	err := s.pool.QueryRow(ctx,
		`SELECT id, form_type, payload_json, ip_address, user_agent, status, message_id, provider_response, error_message, created_at, updated_at
		 FROM form_submissions WHERE id = $1`, id,
	).Scan(&sub.ID, &sub.FormType, &payload, &sub.SourceIP, &sub.UserAgent,
		&sub.Status, &sub.MessageID, &sub.ProviderResponse, &sub.ErrorMessage, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub.Payload = []byte(payload)
	return &sub, nil
}

func (s *PostgresStorage) ListSubmissions(ctx context.Context, formType models.FormType, limit, offset int) ([]models.Submission, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, form_type, payload_json, ip_address, user_agent, status, message_id, provider_response, error_message, created_at, updated_at
	          FROM form_submissions`
	args := []any{}
	if formType != "" {
		query += ` WHERE form_type = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, formType, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var sub models.Submission
		var payload string
		if err := rows.Scan(&sub.ID, &sub.FormType, &payload, &sub.SourceIP, &sub.UserAgent,
			&sub.Status, &sub.MessageID, &sub.ProviderResponse, &sub.ErrorMessage, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		sub.Payload = []byte(payload)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PostgresStorage) MarkSubmissionSent(ctx context.Context, id, messageID, providerResponse string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE form_submissions SET status = $1, message_id = $2, provider_response = $3, updated_at = $4 WHERE id = $5`,
		models.SubmissionSent, messageID, providerResponse, time.Now().UTC(), id,
	)
	return err
}

func (s *PostgresStorage) MarkSubmissionFailed(ctx context.Context, id, errorMessage string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE form_submissions SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`,
		models.SubmissionFailed, errorMessage, time.Now().UTC(), id,
	)
	return err
}

// --- Rate limiting ---

func (s *PostgresStorage) CountRateLimitEvents(ctx context.Context, identifier string, formType models.FormType, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(submission_count), 0) FROM rate_limit_tracker
		 WHERE identifier = $1 AND form_type = $2 AND window_start >= $3`,
		identifier, formType, since,
	).Scan(&count)
	return count, err
}

func (s *PostgresStorage) InsertRateLimitEvent(ctx context.Context, ev *models.RateLimitEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rate_limit_tracker (id, identifier, form_type, submission_count, window_start)
		 VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, ev.Identifier, ev.FormType, ev.Count, ev.WindowStart,
	)
	return err
}
