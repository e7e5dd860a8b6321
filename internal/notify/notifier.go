package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/germanmitharsh/formgate/internal/form"
	"github.com/germanmitharsh/formgate/internal/mailer"
	"github.com/germanmitharsh/formgate/internal/storage"
)

// ErrDeliveryFailed means the owner notification could not be sent after the
// retry was exhausted (or the failure was not retryable).
var ErrDeliveryFailed = errors.New("email delivery failed")

// Config carries the mail identity of the business.
type Config struct {
	SiteName     string
	ContactFrom  string
	EnrollFrom   string
	StudentFrom  string
	OwnerTo      string
	SupportEmail string
	WhatsApp     string
	RetryDelay   time.Duration
}

// Notifier renders submission emails, dispatches them through a Mailer and
// records the outcome on the submission row. A transient provider failure
// (5xx) gets exactly one retry after RetryDelay; there is no backoff or
// requeue beyond that. Failed submissions stay in storage for manual triage.
type Notifier struct {
	mail  mailer.Mailer
	store storage.Storage
	cfg   Config
	log   zerolog.Logger
}

func New(mail mailer.Mailer, store storage.Storage, cfg Config, log zerolog.Logger) *Notifier {
	return &Notifier{mail: mail, store: store, cfg: cfg, log: log}
}

// DeliverContact sends the owner notification for a contact submission and
// flips the submission to sent or failed. submissionID may be empty when the
// insert failed; the status update is then skipped.
func (n *Notifier) DeliverContact(ctx context.Context, submissionID string, f form.Fields) error {
	html, err := render(contactOwnerTemplate, newEmailData(n.cfg, submissionID, f))
	if err != nil {
		return fmt.Errorf("render contact email: %w", err)
	}

	email := mailer.Email{
		From:    n.cfg.ContactFrom,
		To:      []string{n.cfg.OwnerTo},
		ReplyTo: f.Email,
		Subject: fmt.Sprintf("[Contact Form] New enquiry from %s", f.Name),
		HTML:    html,
	}

	result, err := n.sendWithRetry(ctx, email)
	if err != nil {
		n.markFailed(ctx, submissionID, err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	n.markSent(ctx, submissionID, result.MessageID, result.Body)
	return nil
}

// DeliverEnroll sends the owner notification and the student confirmation for
// an enroll submission. The owner email decides the submission status; the
// student confirmation is best-effort and only reported through the returned
// flag.
func (n *Notifier) DeliverEnroll(ctx context.Context, submissionID string, f form.Fields) (studentSent bool, err error) {
	data := newEmailData(n.cfg, submissionID, f)

	ownerHTML, err := render(enrollOwnerTemplate, data)
	if err != nil {
		return false, fmt.Errorf("render enroll owner email: %w", err)
	}
	studentHTML, err := render(studentConfirmTemplate, data)
	if err != nil {
		return false, fmt.Errorf("render student confirmation: %w", err)
	}

	ownerEmail := mailer.Email{
		From:    n.cfg.EnrollFrom,
		To:      []string{n.cfg.OwnerTo},
		ReplyTo: f.Email,
		Subject: fmt.Sprintf("[Enrollment] %s - %s", f.Name, f.Level),
		HTML:    ownerHTML,
	}

	ownerResult, err := n.sendWithRetry(ctx, ownerEmail)
	if err != nil {
		n.markFailed(ctx, submissionID, err)
		return false, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	studentEmail := mailer.Email{
		From:    n.cfg.StudentFrom,
		To:      []string{f.Email},
		Subject: fmt.Sprintf("Thanks for enrolling - Next steps for %s", f.Level),
		HTML:    studentHTML,
	}

	studentResult, studentErr := n.sendWithRetry(ctx, studentEmail)
	if studentErr != nil {
		n.log.Warn().Err(studentErr).
			Str("submission_id", submissionID).
			Msg("student confirmation failed, owner notification already sent")
	}

	response := struct {
		Owner   *mailer.Result `json:"owner"`
		Student *mailer.Result `json:"student,omitempty"`
	}{Owner: ownerResult, Student: studentResult}
	raw, _ := json.Marshal(response)

	n.markSent(ctx, submissionID, ownerResult.MessageID, string(raw))
	return studentErr == nil, nil
}

// sendWithRetry is the two-state attempt counter: one send, and on a
// transient provider failure one more identical send after RetryDelay.
func (n *Notifier) sendWithRetry(ctx context.Context, email mailer.Email) (*mailer.Result, error) {
	result, err := n.mail.Send(ctx, email)
	if err == nil {
		return result, nil
	}
	if !mailer.IsTransient(err) {
		return nil, err
	}

	n.log.Warn().Err(err).Str("subject", email.Subject).Msg("transient mail failure, retrying once")
	time.Sleep(n.cfg.RetryDelay)

	return n.mail.Send(ctx, email)
}

func (n *Notifier) markSent(ctx context.Context, submissionID, messageID, providerResponse string) {
	if submissionID == "" {
		return
	}
	if err := n.store.MarkSubmissionSent(ctx, submissionID, messageID, providerResponse); err != nil {
		n.log.Error().Err(err).Str("submission_id", submissionID).Msg("failed to mark submission sent")
	}
}

func (n *Notifier) markFailed(ctx context.Context, submissionID string, cause error) {
	if submissionID == "" {
		return
	}
	if err := n.store.MarkSubmissionFailed(ctx, submissionID, cause.Error()); err != nil {
		n.log.Error().Err(err).Str("submission_id", submissionID).Msg("failed to mark submission failed")
	}
}
