package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmail() Email {
	return Email{
		From:    "German mit Harsh <noreply@germanmitharsh.com>",
		To:      []string{"support@germanmitharsh.com"},
		ReplyTo: "anna@example.com",
		Subject: "[Contact Form] New enquiry from Anna",
		HTML:    "<p>hello</p>",
	}
}

func TestResendSendSuccess(t *testing.T) {
	var gotAuth string
	var gotBody resendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"msg_abc123"}`))
	}))
	defer srv.Close()

	m := NewResendWithBaseURL("re_testkey", srv.URL, 5*time.Second)
	result, err := m.Send(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_testkey", gotAuth)
	assert.Equal(t, "msg_abc123", result.MessageID)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, []string{"support@germanmitharsh.com"}, gotBody.To)
	assert.Equal(t, "anna@example.com", gotBody.ReplyTo)
}

func TestResendSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"try later"}`))
	}))
	defer srv.Close()

	m := NewResendWithBaseURL("re_testkey", srv.URL, 5*time.Second)
	_, err := m.Send(context.Background(), testEmail())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.True(t, IsTransient(err))
}

func TestResendSendClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer srv.Close()

	m := NewResendWithBaseURL("re_testkey", srv.URL, 5*time.Second)
	_, err := m.Send(context.Background(), testEmail())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.False(t, IsTransient(err))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&APIError{StatusCode: 500}))
	assert.True(t, IsTransient(&APIError{StatusCode: 503}))
	assert.False(t, IsTransient(&APIError{StatusCode: 429}))
	assert.False(t, IsTransient(&APIError{StatusCode: 400}))
	assert.False(t, IsTransient(errors.New("connection refused")))
	assert.False(t, IsTransient(nil))
}
