package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

// ResendMailer sends through the Resend transactional-mail API.
type ResendMailer struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ Mailer = (*ResendMailer)(nil)

func NewResend(apiKey string, timeout time.Duration) *ResendMailer {
	return &ResendMailer{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewResendWithBaseURL points the client at a different API host. Used by
// tests to target a local fake.
func NewResendWithBaseURL(apiKey, baseURL string, timeout time.Duration) *ResendMailer {
	m := NewResend(apiKey, timeout)
	m.baseURL = baseURL
	return m
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

func (m *ResendMailer) Send(ctx context.Context, email Email) (*Result, error) {
	payload, err := json.Marshal(resendRequest{
		From:    email.From,
		To:      email.To,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return nil, fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var parsed resendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}

	return &Result{
		MessageID:  parsed.ID,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}
