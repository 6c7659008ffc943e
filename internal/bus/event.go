package bus

import "time"

// Event kinds published by the sync layer. Subscribers filter by prefix, so
// "message." receives every message event and "" receives everything.
const (
	KindMessageUpserted     = "message.upserted"
	KindMessageSendAck      = "message.send_ack"
	KindMessageSendFailed   = "message.send_failed"
	KindConversationUpdated = "conversation.updated"
	KindSyncFetched         = "sync.fetched"
	KindSyncCleaned         = "sync.cleaned"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
