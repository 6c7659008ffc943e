// Package gateway defines the contract with the dispatch message API and its
// HTTP implementation. The gateway never retries on its own; retry policy
// belongs entirely to the sync coordinator.
package gateway

import (
	"context"
	"time"
)

// SendRequest carries one outgoing operator message.
type SendRequest struct {
	OperatorID   string
	Content      string
	SenderRole   string
	SenderName   string
	Predefined   bool
	PredefinedID int64
	// LocalID is the locally generated message id, threaded through as a
	// correlation token. Retries reuse it verbatim.
	LocalID string
}

// SendResult is the server's acknowledgment of an accepted message.
type SendResult struct {
	ServerID  string
	CreatedAt time.Time
}

// RemoteMessage is one entry of the remote message feed.
type RemoteMessage struct {
	ServerID   string
	Content    string
	SenderRole string
	SenderID   string
	SenderName string
	CreatedAt  time.Time
	ReadAt     time.Time // zero = unread
}

// PredefinedResponse is a reply template maintained server-side.
type PredefinedResponse struct {
	ID        int64
	Text      string
	Category  string
	SortOrder int
	Active    bool
}

// Session is an authenticated operator session.
type Session struct {
	Token       string
	OperatorID  string
	DisplayName string
	ExpiresAt   time.Time
}

// AttendanceRecord is one shift mark in an upload batch.
type AttendanceRecord struct {
	LocalID    string
	OperatorID string
	Kind       string
	RecordedAt time.Time
}

// Gateway is the remote collaborator the sync coordinator depends on. Every
// call may fail with an *AppError (explicit rejection), ErrUnreachable or
// ErrTimeout; see Classify.
type Gateway interface {
	Authenticate(ctx context.Context, code string) (*Session, error)
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
	FetchSince(ctx context.Context, operatorID, cursorServerID string) ([]RemoteMessage, error)
	MarkRead(ctx context.Context, serverIDs []string) error
	PredefinedResponses(ctx context.Context) ([]PredefinedResponse, error)
	UploadAttendance(ctx context.Context, records []AttendanceRecord) error
}
