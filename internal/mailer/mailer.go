package mailer

import (
	"context"
	"errors"
	"fmt"
)

// Email is one outbound transactional message.
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Result is the provider's answer to a successful send.
type Result struct {
	MessageID  string
	StatusCode int
	Body       string
}

// Mailer hands an email to a transactional-mail provider.
type Mailer interface {
	Send(ctx context.Context, email Email) (*Result, error)
}

// APIError is a non-2xx answer from the provider. The status code decides
// whether a retry is worth attempting.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mail provider returned %d: %s", e.StatusCode, e.Message)
}

// IsTransient reports whether err is a provider-side failure (5xx) that is
// eligible for the single retry. Network errors and 4xx rejections are not.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 && apiErr.StatusCode < 600
	}
	return false
}
