package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// GetOrCreateConversation returns the conversation for an operator, creating
// it lazily on first contact. Idempotent: the operator_id unique constraint
// guarantees at most one row per operator.
func (db *DB) GetOrCreateConversation(operatorID string) (*Conversation, error) {
	c, err := db.conversationByOperator(operatorID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO conversations (id, operator_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(operator_id) DO NOTHING`,
		uuid.NewString(), operatorID, now)
	if err != nil {
		return nil, err
	}
	return db.conversationByOperator(operatorID)
}

// GetConversation returns a conversation by id, or nil if absent.
func (db *DB) GetConversation(id string) (*Conversation, error) {
	return db.scanConversation(db.QueryRow(`
		SELECT id, operator_id, created_at, last_message_at, unread_count
		FROM conversations WHERE id = ?`, id))
}

func (db *DB) conversationByOperator(operatorID string) (*Conversation, error) {
	return db.scanConversation(db.QueryRow(`
		SELECT id, operator_id, created_at, last_message_at, unread_count
		FROM conversations WHERE operator_id = ?`, operatorID))
}

func (db *DB) scanConversation(row *sql.Row) (*Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.OperatorID, &c.CreatedAt, &c.LastMessageAt, &c.UnreadCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TouchConversation advances the last-message timestamp (monotonically) and
// adjusts the unread counter by delta.
func (db *DB) TouchConversation(id string, lastMessageAt int64, unreadDelta int) error {
	_, err := db.Exec(`
		UPDATE conversations
		SET last_message_at = MAX(last_message_at, ?),
			unread_count = unread_count + ?
		WHERE id = ?`,
		lastMessageAt, unreadDelta, id)
	return err
}

// ResetUnread zeroes the unread counter for a conversation.
func (db *DB) ResetUnread(id string) error {
	_, err := db.Exec(`UPDATE conversations SET unread_count = 0 WHERE id = ?`, id)
	return err
}
