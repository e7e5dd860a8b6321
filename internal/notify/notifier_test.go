package notify

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanmitharsh/formgate/internal/form"
	"github.com/germanmitharsh/formgate/internal/mailer"
	"github.com/germanmitharsh/formgate/internal/models"
	"github.com/germanmitharsh/formgate/internal/storage"
)

// fakeMailer plays back a scripted error per call; calls beyond the script
// succeed.
type fakeMailer struct {
	script []error
	sent   []mailer.Email
}

func (f *fakeMailer) Send(ctx context.Context, email mailer.Email) (*mailer.Result, error) {
	call := len(f.sent)
	f.sent = append(f.sent, email)
	if call < len(f.script) && f.script[call] != nil {
		return nil, f.script[call]
	}
	return &mailer.Result{MessageID: "msg_test", StatusCode: 200, Body: `{"id":"msg_test"}`}, nil
}

func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func testConfig() Config {
	return Config{
		SiteName:     "German mit Harsh",
		ContactFrom:  "German mit Harsh <noreply@germanmitharsh.com>",
		EnrollFrom:   "German mit Harsh <enroll@germanmitharsh.com>",
		StudentFrom:  "Harsh - German mit Harsh <harsh@germanmitharsh.com>",
		OwnerTo:      "support@germanmitharsh.com",
		SupportEmail: "support@germanmitharsh.com",
		WhatsApp:     "https://wa.me/4915511330861",
		RetryDelay:   0,
	}
}

func seedSubmission(t *testing.T, store storage.Storage, formType models.FormType) string {
	t.Helper()
	now := time.Now().UTC()
	sub := &models.Submission{
		ID:        models.NewID("sub"),
		FormType:  formType,
		Payload:   []byte(`{}`),
		Status:    models.SubmissionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateSubmission(context.Background(), sub))
	return sub.ID
}

func enrollFields() form.Fields {
	return form.Fields{
		Name:    "Anna Müller",
		Email:   "anna@example.com",
		Phone:   "+49 151 1234567",
		Level:   "a1.1",
		Message: "I want to learn German for travel.",
	}
}

func contactFields() form.Fields {
	return form.Fields{
		Name:    "Anna Müller",
		Email:   "anna@example.com",
		Subject: "Group lessons",
		Message: "I want to learn German for travel.",
	}
}

func TestDeliverContactHappyPath(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{}
	n := New(mail, store, testConfig(), zerolog.Nop())
	id := seedSubmission(t, store, models.FormContact)

	require.NoError(t, n.DeliverContact(context.Background(), id, contactFields()))
	require.Len(t, mail.sent, 1)

	email := mail.sent[0]
	assert.Equal(t, []string{"support@germanmitharsh.com"}, email.To)
	assert.Equal(t, "anna@example.com", email.ReplyTo)
	assert.Equal(t, "[Contact Form] New enquiry from Anna Müller", email.Subject)
	assert.Contains(t, email.HTML, "Anna Müller")
	assert.Contains(t, email.HTML, id)

	sub, err := store.GetSubmission(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, sub.Status)
	assert.Equal(t, "msg_test", sub.MessageID)
}

func TestDeliverContactRetriesOnceOnTransientFailure(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{script: []error{&mailer.APIError{StatusCode: 503, Message: "unavailable"}}}
	n := New(mail, store, testConfig(), zerolog.Nop())
	id := seedSubmission(t, store, models.FormContact)

	require.NoError(t, n.DeliverContact(context.Background(), id, contactFields()))
	// Exactly two outbound calls: the failure and the retry.
	assert.Len(t, mail.sent, 2)
	assert.Equal(t, mail.sent[0].HTML, mail.sent[1].HTML)

	sub, err := store.GetSubmission(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, sub.Status)
}

func TestDeliverContactFailsAfterRetryExhausted(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{script: []error{
		&mailer.APIError{StatusCode: 503, Message: "unavailable"},
		&mailer.APIError{StatusCode: 503, Message: "still unavailable"},
	}}
	n := New(mail, store, testConfig(), zerolog.Nop())
	id := seedSubmission(t, store, models.FormContact)

	err := n.DeliverContact(context.Background(), id, contactFields())
	require.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Len(t, mail.sent, 2)

	sub, getErr := store.GetSubmission(context.Background(), id)
	require.NoError(t, getErr)
	assert.Equal(t, models.SubmissionFailed, sub.Status)
	assert.Contains(t, sub.ErrorMessage, "503")
}

func TestDeliverContactNoRetryOnPermanentFailure(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{script: []error{&mailer.APIError{StatusCode: 422, Message: "bad address"}}}
	n := New(mail, store, testConfig(), zerolog.Nop())
	id := seedSubmission(t, store, models.FormContact)

	err := n.DeliverContact(context.Background(), id, contactFields())
	require.ErrorIs(t, err, ErrDeliveryFailed)
	// 4xx is not transient: one call only.
	assert.Len(t, mail.sent, 1)

	sub, getErr := store.GetSubmission(context.Background(), id)
	require.NoError(t, getErr)
	assert.Equal(t, models.SubmissionFailed, sub.Status)
}

func TestDeliverContactWithoutSubmissionID(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{}
	n := New(mail, store, testConfig(), zerolog.Nop())

	// Persistence failed upstream; the email still goes out.
	require.NoError(t, n.DeliverContact(context.Background(), "", contactFields()))
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].HTML, "n/a")
}

func TestDeliverEnrollSendsOwnerAndStudent(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{}
	n := New(mail, store, testConfig(), zerolog.Nop())
	id := seedSubmission(t, store, models.FormEnroll)

	studentSent, err := n.DeliverEnroll(context.Background(), id, enrollFields())
	require.NoError(t, err)
	assert.True(t, studentSent)
	require.Len(t, mail.sent, 2)

	owner := mail.sent[0]
	assert.Equal(t, []string{"support@germanmitharsh.com"}, owner.To)
	assert.Equal(t, "[Enrollment] Anna Müller - a1.1", owner.Subject)

	student := mail.sent[1]
	assert.Equal(t, []string{"anna@example.com"}, student.To)
	assert.Equal(t, "Thanks for enrolling - Next steps for a1.1", student.Subject)
	assert.Contains(t, student.HTML, "Thanks for Enrolling")

	sub, err := store.GetSubmission(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, sub.Status)
	assert.Contains(t, sub.ProviderResponse, "owner")
}

func TestDeliverEnrollOwnerFailureMarksFailed(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{script: []error{&mailer.APIError{StatusCode: 400, Message: "rejected"}}}
	n := New(mail, store, testConfig(), zerolog.Nop())
	id := seedSubmission(t, store, models.FormEnroll)

	studentSent, err := n.DeliverEnroll(context.Background(), id, enrollFields())
	require.ErrorIs(t, err, ErrDeliveryFailed)
	assert.False(t, studentSent)
	// The student confirmation is never attempted.
	assert.Len(t, mail.sent, 1)

	sub, getErr := store.GetSubmission(context.Background(), id)
	require.NoError(t, getErr)
	assert.Equal(t, models.SubmissionFailed, sub.Status)
}

func TestDeliverEnrollStudentFailureKeepsSentStatus(t *testing.T) {
	store := newTestStore(t)
	mail := &fakeMailer{script: []error{
		nil, // owner succeeds
		&mailer.APIError{StatusCode: 400, Message: "mailbox does not exist"},
	}}
	n := New(mail, store, testConfig(), zerolog.Nop())
	id := seedSubmission(t, store, models.FormEnroll)

	studentSent, err := n.DeliverEnroll(context.Background(), id, enrollFields())
	require.NoError(t, err)
	assert.False(t, studentSent)

	sub, getErr := store.GetSubmission(context.Background(), id)
	require.NoError(t, getErr)
	assert.Equal(t, models.SubmissionSent, sub.Status)
}

func TestTemplatesEscapeUserContent(t *testing.T) {
	data := newEmailData(testConfig(), "sub_x", form.Fields{
		Name:    "Anna",
		Email:   "anna@example.com",
		Message: `say "hello" & more`,
	})
	html, err := render(contactOwnerTemplate, data)
	require.NoError(t, err)
	assert.NotContains(t, html, `say "hello" & more`)
	assert.True(t, strings.Contains(html, "&amp;") || strings.Contains(html, "&#38;"))
}
