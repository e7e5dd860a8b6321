package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/germanmitharsh/formgate/internal/form"
	"github.com/germanmitharsh/formgate/internal/models"
	"github.com/germanmitharsh/formgate/internal/storage"
)

const maxBodySize = 64 * 1024 // 64KB

// Shared user-facing messages. Honeypot hits get the same generic rejection
// as any bad submission so bots learn nothing from the response.
const (
	msgInvalidJSON       = "Invalid JSON"
	msgInvalidSubmission = "Invalid submission"
	msgEmailFailed       = "Failed to send email. Please try again."
)

// clientIP returns the request's source address without the port.
// middleware.RealIP has already resolved X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// persistSubmission inserts a pending submission row before any email work.
// Insert failures are logged and swallowed: the notification still goes out,
// just without a submission id to correlate on. Returns the assigned id, or
// "" when the insert failed.
func persistSubmission(ctx context.Context, store storage.Storage, formType models.FormType, fields form.Fields, r *http.Request, log zerolog.Logger) string {
	payload, err := json.Marshal(fields)
	if err != nil {
		log.Error().Err(err).Str("form_type", string(formType)).Msg("failed to encode submission payload")
		return ""
	}

	now := time.Now().UTC()
	sub := &models.Submission{
		ID:        models.NewID("sub"),
		FormType:  formType,
		Payload:   payload,
		SourceIP:  clientIP(r),
		UserAgent: r.UserAgent(),
		Status:    models.SubmissionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := store.CreateSubmission(ctx, sub); err != nil {
		log.Error().Err(err).Str("form_type", string(formType)).Msg("failed to persist submission")
		return ""
	}
	return sub.ID
}
