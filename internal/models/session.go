package models

import "time"

// SessionStatus represents the status of a background model load.
type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusLoading  SessionStatus = "loading"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusError    SessionStatus = "error"
)

// LoadSession tracks one background compile-and-load run.
type LoadSession struct {
	ID               string        `json:"id"`
	Status           SessionStatus `json:"status"`
	StartedAt        time.Time     `json:"startedAt"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	Views            *ViewList     `json:"views,omitempty"`
	Error            string        `json:"error,omitempty"`
}

// NewLoadSession creates a LoadSession in pending status.
func NewLoadSession(id string) *LoadSession {
	return &LoadSession{
		ID:        id,
		Status:    SessionStatusPending,
		StartedAt: time.Now(),
	}
}

// Done reports whether the load has finished, successfully or not.
func (s *LoadSession) Done() bool {
	return s.Status == SessionStatusComplete || s.Status == SessionStatusError
}
