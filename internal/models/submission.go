package models

import (
	"encoding/json"
	"time"
)

type FormType string

const (
	FormContact FormType = "contact"
	FormEnroll  FormType = "enroll"
)

type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionSent    SubmissionStatus = "sent"
	SubmissionFailed  SubmissionStatus = "failed"
)

// Submission is one persisted form post and its processing outcome.
// Status moves once: pending -> sent or pending -> failed.
type Submission struct {
	ID               string           `json:"id"`
	FormType         FormType         `json:"form_type"`
	Payload          json.RawMessage  `json:"payload"`
	SourceIP         string           `json:"source_ip"`
	UserAgent        string           `json:"user_agent"`
	Status           SubmissionStatus `json:"status"`
	MessageID        string           `json:"message_id,omitempty"`
	ProviderResponse string           `json:"provider_response,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
