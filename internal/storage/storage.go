package storage

import (
	"context"
	"time"

	"github.com/germanmitharsh/formgate/internal/models"
)

type Storage interface {
	// Submissions
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, formType models.FormType, limit, offset int) ([]models.Submission, error)
	MarkSubmissionSent(ctx context.Context, id, messageID, providerResponse string) error
	MarkSubmissionFailed(ctx context.Context, id, errorMessage string) error

	// Rate limiting
	CountRateLimitEvents(ctx context.Context, identifier string, formType models.FormType, since time.Time) (int, error)
	InsertRateLimitEvent(ctx context.Context, ev *models.RateLimitEvent) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
