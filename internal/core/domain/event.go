package domain

import "time"

type SessionEventType string

const (
	EventSubjectUploaded  SessionEventType = "subject_uploaded"
	EventGarmentSelected  SessionEventType = "garment_selected"
	EventTryOnCompleted   SessionEventType = "tryon_completed"
	EventFeedbackReceived SessionEventType = "feedback_received"
	EventOperationFailed  SessionEventType = "operation_failed"
	EventSessionReset     SessionEventType = "session_reset"
)

// SessionEvent is a notification about a finished step. It never carries
// image bytes.
type SessionEvent struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"session_id"`
	Type       SessionEventType `json:"type"`
	Operation  Operation        `json:"operation,omitempty"`
	GarmentID  int              `json:"garment_id,omitempty"`
	Size       string           `json:"size,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMS float64          `json:"duration_ms,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
