package models

import "time"

// RateLimitEvent is one accepted submission attempt, used for window counting.
// Rows are append-only; Count is always 1 per insert.
type RateLimitEvent struct {
	ID          string    `json:"id"`
	Identifier  string    `json:"identifier"`
	FormType    FormType  `json:"form_type"`
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
}
