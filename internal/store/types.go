package store

import "github.com/vialibre/opchat/internal/status"

// Sender roles, stored locally exactly as serialized on the wire.
const (
	RoleOperator = "OPERADOR"
	RoleAnalyst  = "ANALISTA"
)

// Conversation is the single ongoing thread between one operator and the
// analyst pool. At most one exists per operator id.
type Conversation struct {
	ID            string
	OperatorID    string
	CreatedAt     int64
	LastMessageAt int64
	UnreadCount   int
}

// Message is a locally stored chat message. ID is generated locally so the
// message can be shown before the server acknowledges it; ServerID stays
// empty until the acknowledgment arrives.
type Message struct {
	ID             string
	ConversationID string
	Content        string
	SenderRole     string
	SenderName     string
	CreatedAt      int64
	SyncStatus     status.Status
	ReadAt         int64  // 0 = unread
	ServerID       string // "" = not yet acknowledged
	PredefinedID   int64  // 0 = free-form text
}

// PredefinedResponse is a cached reply template fetched from the server.
type PredefinedResponse struct {
	ID        int64
	Text      string
	Category  string
	SortOrder int
	Active    bool
}

// AttendanceEntry is a locally recorded shift mark, uploaded in batches.
type AttendanceEntry struct {
	ID         string
	OperatorID string
	Kind       string
	RecordedAt int64
	Uploaded   bool
}
