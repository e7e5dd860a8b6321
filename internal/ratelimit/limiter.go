package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/germanmitharsh/formgate/internal/models"
	"github.com/germanmitharsh/formgate/internal/storage"
)

// Rule bounds one form type: at most Limit accepted submissions per
// identifier within the trailing Window.
type Rule struct {
	Limit        int
	Window       time.Duration
	RetryMessage string
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed bool
	Message string
}

// Limiter counts accepted submissions per identifier and form type against
// the rate_limit_tracker table. The count-then-insert sequence is not atomic;
// concurrent requests from one identifier can slip past the ceiling, which is
// accepted for a marketing form.
type Limiter struct {
	store storage.Storage
	rules map[models.FormType]Rule
	log   zerolog.Logger
}

func New(store storage.Storage, rules map[models.FormType]Rule, log zerolog.Logger) *Limiter {
	return &Limiter{store: store, rules: rules, log: log}
}

// Allow checks the trailing window for identifier+formType and, when under
// the ceiling, records this attempt. Storage failures fail open: the funnel's
// availability outweighs strict throttling, so a broken lookup or insert logs
// a warning and lets the request through.
func (l *Limiter) Allow(ctx context.Context, identifier string, formType models.FormType) Decision {
	rule, ok := l.rules[formType]
	if !ok || rule.Limit <= 0 {
		return Decision{Allowed: true}
	}

	since := time.Now().UTC().Add(-rule.Window)
	count, err := l.store.CountRateLimitEvents(ctx, identifier, formType, since)
	if err != nil {
		l.log.Warn().Err(err).
			Str("identifier", identifier).
			Str("form_type", string(formType)).
			Msg("rate limit lookup failed, allowing request")
		return Decision{Allowed: true}
	}

	if count >= rule.Limit {
		return Decision{Allowed: false, Message: rule.RetryMessage}
	}

	ev := &models.RateLimitEvent{
		ID:          models.NewID("rl"),
		Identifier:  identifier,
		FormType:    formType,
		Count:       1,
		WindowStart: time.Now().UTC(),
	}
	if err := l.store.InsertRateLimitEvent(ctx, ev); err != nil {
		l.log.Warn().Err(err).
			Str("identifier", identifier).
			Str("form_type", string(formType)).
			Msg("rate limit insert failed, allowing request")
	}
	return Decision{Allowed: true}
}
