package ratelimit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanmitharsh/formgate/internal/models"
	"github.com/germanmitharsh/formgate/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func contactRules() map[models.FormType]Rule {
	return map[models.FormType]Rule{
		models.FormContact: {
			Limit:        5,
			Window:       time.Hour,
			RetryMessage: "Too many submissions. Please try again in an hour.",
		},
		models.FormEnroll: {
			Limit:        3,
			Window:       24 * time.Hour,
			RetryMessage: "Too many enrollment requests. Please try again tomorrow.",
		},
	}
}

func TestLimiterRejectsSixthContactSubmission(t *testing.T) {
	store := newTestStore(t)
	limiter := New(store, contactRules(), zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d := limiter.Allow(ctx, "203.0.113.7", models.FormContact)
		require.True(t, d.Allowed, "submission %d should pass", i+1)
	}

	d := limiter.Allow(ctx, "203.0.113.7", models.FormContact)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Too many submissions. Please try again in an hour.", d.Message)

	// A different identifier is unaffected.
	assert.True(t, limiter.Allow(ctx, "203.0.113.8", models.FormContact).Allowed)
}

func TestLimiterWindowExpiry(t *testing.T) {
	store := newTestStore(t)
	limiter := New(store, contactRules(), zerolog.Nop())
	ctx := context.Background()
	now := time.Now().UTC()

	// Three submissions in the previous hour, aged out of the current window.
	for i := 0; i < 3; i++ {
		require.NoError(t, store.InsertRateLimitEvent(ctx, &models.RateLimitEvent{
			ID:          models.NewID("rl"),
			Identifier:  "203.0.113.7",
			FormType:    models.FormContact,
			Count:       1,
			WindowStart: now.Add(-90 * time.Minute),
		}))
	}

	// Three more fit in the current hour.
	for i := 0; i < 3; i++ {
		d := limiter.Allow(ctx, "203.0.113.7", models.FormContact)
		assert.True(t, d.Allowed, "submission %d in fresh window should pass", i+1)
	}
}

func TestLimiterSeparatesFormTypes(t *testing.T) {
	store := newTestStore(t)
	limiter := New(store, contactRules(), zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow(ctx, "anna@example.com", models.FormEnroll).Allowed)
	}
	assert.False(t, limiter.Allow(ctx, "anna@example.com", models.FormEnroll).Allowed)

	// The same identifier still passes the contact rule.
	assert.True(t, limiter.Allow(ctx, "anna@example.com", models.FormContact).Allowed)
}

func TestLimiterFailsOpenOnStorageError(t *testing.T) {
	limiter := New(&brokenStore{}, contactRules(), zerolog.Nop())
	d := limiter.Allow(context.Background(), "203.0.113.7", models.FormContact)
	assert.True(t, d.Allowed)
}

func TestLimiterUnknownFormTypeAllowed(t *testing.T) {
	store := newTestStore(t)
	limiter := New(store, map[models.FormType]Rule{}, zerolog.Nop())
	assert.True(t, limiter.Allow(context.Background(), "x", models.FormContact).Allowed)
}

// brokenStore errors on every call; only the rate-limit methods matter here.
type brokenStore struct{}

var errBroken = errors.New("storage unavailable")

func (b *brokenStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	return errBroken
}

func (b *brokenStore) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	return nil, errBroken
}

func (b *brokenStore) ListSubmissions(ctx context.Context, formType models.FormType, limit, offset int) ([]models.Submission, error) {
	return nil, errBroken
}

func (b *brokenStore) MarkSubmissionSent(ctx context.Context, id, messageID, providerResponse string) error {
	return errBroken
}

func (b *brokenStore) MarkSubmissionFailed(ctx context.Context, id, errorMessage string) error {
	return errBroken
}

func (b *brokenStore) CountRateLimitEvents(ctx context.Context, identifier string, formType models.FormType, since time.Time) (int, error) {
	return 0, errBroken
}

func (b *brokenStore) InsertRateLimitEvent(ctx context.Context, ev *models.RateLimitEvent) error {
	return errBroken
}

func (b *brokenStore) Migrate(ctx context.Context) error { return nil }

func (b *brokenStore) Close() error { return nil }
