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

type ContactHandler struct {
	store    storage.Storage
	limiter  *ratelimit.Limiter
	notifier *notify.Notifier
	log      zerolog.Logger
}

func NewContactHandler(store storage.Storage, limiter *ratelimit.Limiter, notifier *notify.Notifier, log zerolog.Logger) *ContactHandler {
	return &ContactHandler{store: store, limiter: limiter, notifier: notifier, log: log}
}

// Submit handles POST /contact: extract -> normalize -> validate -> rate
// limit (by client IP) -> persist pending -> owner email with one retry.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
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

	fields := form.Normalize(payload, models.FormContact)
	if err := form.Validate(&fields, models.FormContact); err != nil {
		if errors.Is(err, form.ErrSpam) {
			h.log.Info().Str("ip", clientIP(r)).Msg("honeypot triggered on contact form")
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

	decision := h.limiter.Allow(r.Context(), clientIP(r), models.FormContact)
	if !decision.Allowed {
		writeError(w, http.StatusTooManyRequests, decision.Message)
		return
	}

	submissionID := persistSubmission(r.Context(), h.store, models.FormContact, fields, r, h.log)

	if err := h.notifier.DeliverContact(r.Context(), submissionID, fields); err != nil {
		h.log.Error().Err(err).Str("submission_id", submissionID).Msg("contact notification failed")
		writeError(w, http.StatusInternalServerError, msgEmailFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
		"id": submissionID,
	})
}
