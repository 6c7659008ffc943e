package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/vialibre/opchat/internal/status"
)

const upsertMessageSQL = `
	INSERT INTO messages (id, conversation_id, content, sender_role, sender_name, created_at, sync_status, read_at, server_id, predefined_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		content = excluded.content,
		sender_name = excluded.sender_name,
		sync_status = excluded.sync_status,
		read_at = excluded.read_at,
		server_id = excluded.server_id,
		predefined_id = excluded.predefined_id`

// UpsertMessage inserts or replaces a message (idempotent on the local id).
// Re-inserting the same id overwrites prior state rather than appending.
func (db *DB) UpsertMessage(m *Message) error {
	_, err := db.Exec(upsertMessageSQL,
		m.ID, m.ConversationID, m.Content, m.SenderRole, m.SenderName,
		m.CreatedAt, string(m.SyncStatus), m.ReadAt, m.ServerID, m.PredefinedID)
	return err
}

// UpsertMessages bulk-inserts a fetch batch in one transaction. Insertion
// order does not matter; uniqueness is by local id.
func (db *DB) UpsertMessages(msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range msgs {
		if _, err := tx.Exec(upsertMessageSQL,
			m.ID, m.ConversationID, m.Content, m.SenderRole, m.SenderName,
			m.CreatedAt, string(m.SyncStatus), m.ReadAt, m.ServerID, m.PredefinedID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdateSyncStatus transitions a message's sync status. Invalid transitions
// (anything away from SENT) are silent no-ops, keeping SENT terminal.
// serverID is recorded only when non-empty.
func (db *DB) UpdateSyncStatus(id string, to status.Status, serverID string) error {
	var cur string
	err := db.QueryRow(`SELECT sync_status FROM messages WHERE id = ?`, id).Scan(&cur)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if !status.CanTransition(status.Status(cur), to) {
		return nil
	}
	if serverID != "" {
		_, err = db.Exec(`UPDATE messages SET sync_status = ?, server_id = ? WHERE id = ?`,
			string(to), serverID, id)
	} else {
		_, err = db.Exec(`UPDATE messages SET sync_status = ? WHERE id = ?`, string(to), id)
	}
	return err
}

// MarkRead sets the read timestamp on a message. Re-marking an already-read
// message is a no-op.
func (db *DB) MarkRead(id string, readAt int64) error {
	_, err := db.Exec(`UPDATE messages SET read_at = ? WHERE id = ? AND read_at = 0`, readAt, id)
	return err
}

// MarkConversationReadToday marks every unread counterparty message created
// on now's local calendar day as read.
func (db *DB) MarkConversationReadToday(conversationID string, readAt int64, now time.Time) error {
	start, end := dayBounds(now)
	_, err := db.Exec(`
		UPDATE messages SET read_at = ?
		WHERE conversation_id = ? AND sender_role = ? AND read_at = 0
			AND created_at >= ? AND created_at < ?`,
		readAt, conversationID, RoleAnalyst, start, end)
	return err
}

// MessagesForToday returns the full chat view: every message created on the
// current local calendar day, ascending by creation time.
func (db *DB) MessagesForToday(conversationID string) ([]Message, error) {
	return db.MessagesForDay(conversationID, time.Now())
}

// MessagesForDay returns the messages created on day's local calendar day.
func (db *DB) MessagesForDay(conversationID string, day time.Time) ([]Message, error) {
	start, end := dayBounds(day)
	rows, err := db.Query(`
		SELECT id, conversation_id, content, sender_role, sender_name, created_at, sync_status, read_at, server_id, predefined_id
		FROM messages
		WHERE conversation_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at ASC`,
		conversationID, start, end)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

// PendingMessages returns unconfirmed messages in creation order, the walk
// order for retries.
func (db *DB) PendingMessages(conversationID string) ([]Message, error) {
	return db.messagesByStatus(conversationID, status.Pending)
}

// FailedMessages returns rejected messages in creation order.
func (db *DB) FailedMessages(conversationID string) ([]Message, error) {
	return db.messagesByStatus(conversationID, status.Failed)
}

func (db *DB) messagesByStatus(conversationID string, s status.Status) ([]Message, error) {
	rows, err := db.Query(`
		SELECT id, conversation_id, content, sender_role, sender_name, created_at, sync_status, read_at, server_id, predefined_id
		FROM messages
		WHERE conversation_id = ? AND sync_status = ?
		ORDER BY created_at ASC`,
		conversationID, string(s))
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

// GetMessage returns a message by local id, or nil if absent.
func (db *DB) GetMessage(id string) (*Message, error) {
	row := db.QueryRow(`
		SELECT id, conversation_id, content, sender_role, sender_name, created_at, sync_status, read_at, server_id, predefined_id
		FROM messages WHERE id = ?`, id)
	var m Message
	var st string
	err := row.Scan(&m.ID, &m.ConversationID, &m.Content, &m.SenderRole, &m.SenderName,
		&m.CreatedAt, &st, &m.ReadAt, &m.ServerID, &m.PredefinedID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.SyncStatus = status.Status(st)
	return &m, nil
}

// ServerIDs returns the server ids assigned to the given local ids, skipping
// messages not yet acknowledged.
func (db *DB) ServerIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.Query(`
		SELECT server_id FROM messages
		WHERE id IN (`+placeholders+`) AND server_id != ''
		ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		out = append(out, sid)
	}
	return out, rows.Err()
}

// LastConfirmedServerID returns the sync cursor: the server id of the most
// recent (by creation time) acknowledged message, or "" when none exists.
func (db *DB) LastConfirmedServerID(conversationID string) (string, error) {
	var sid string
	err := db.QueryRow(`
		SELECT server_id FROM messages
		WHERE conversation_id = ? AND server_id != ''
		ORDER BY created_at DESC
		LIMIT 1`, conversationID).Scan(&sid)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sid, nil
}

// DeleteOlderThan removes every message created before cutoff, regardless of
// sync status, and returns the number deleted.
func (db *DB) DeleteOlderThan(cutoff int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM messages WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		var st string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Content, &m.SenderRole, &m.SenderName,
			&m.CreatedAt, &st, &m.ReadAt, &m.ServerID, &m.PredefinedID); err != nil {
			return nil, err
		}
		m.SyncStatus = status.Status(st)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// dayBounds returns the [start, end) Unix-millisecond window of t's calendar
// day in t's own location. "Today" is a local-timezone concept, not UTC.
func dayBounds(t time.Time) (int64, int64) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start.UnixMilli(), start.AddDate(0, 0, 1).UnixMilli()
}
