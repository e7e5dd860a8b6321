package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/germanmitharsh/formgate/internal/form"
	"github.com/germanmitharsh/formgate/internal/models"
	"github.com/germanmitharsh/formgate/internal/notify"
	"github.com/germanmitharsh/formgate/internal/ratelimit"
	"github.com/germanmitharsh/formgate/internal/storage"
)

type EnrollHandler struct {
	store    storage.Storage
	limiter  *ratelimit.Limiter
	notifier *notify.Notifier
	log      zerolog.Logger
}

func NewEnrollHandler(store storage.Storage, limiter *ratelimit.Limiter, notifier *notify.Notifier, log zerolog.Logger) *EnrollHandler {
	return &EnrollHandler{store: store, limiter: limiter, notifier: notifier, log: log}
}

// Submit handles POST /enroll. Same pipeline as the contact form except the
// rate limit keys on the submitted email, the level field is validated
// against the course catalog, and the student gets a confirmation email on
// top of the owner notification.
func (h *EnrollHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	payload, err := form.ExtractPayload(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	fields := form.Normalize(payload, models.FormEnroll)
	if err := form.Validate(&fields, models.FormEnroll); err != nil {
		if errors.Is(err, form.ErrSpam) {
			h.log.Info().Str("ip", clientIP(r)).Msg("honeypot triggered on enroll form")
			writeError(w, http.StatusBadRequest, msgInvalidSubmission)
			return
		}
		var fieldErr *form.FieldError
		if errors.As(err, &fieldErr) {
			writeError(w, http.StatusBadRequest, fieldErr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidSubmission)
		return
	}

	decision := h.limiter.Allow(r.Context(), fields.Email, models.FormEnroll)
	if !decision.Allowed {
		writeError(w, http.StatusTooManyRequests, decision.Message)
		return
	}

	submissionID := persistSubmission(r.Context(), h.store, models.FormEnroll, fields, r, h.log)

	studentSent, err := h.notifier.DeliverEnroll(r.Context(), submissionID, fields)
	if err != nil {
		h.log.Error().Err(err).Str("submission_id", submissionID).Msg("enroll notification failed")
		writeError(w, http.StatusInternalServerError, msgEmailFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":                 true,
		"id":                 submissionID,
		"student_email_sent": studentSent,
	})
}
