// Package sync implements the chat synchronization protocol: optimistic local
// sends, retry of unconfirmed messages, incremental fetch against the remote
// feed, read-state propagation and retention cleanup. The coordinator holds
// no state of its own; everything durable lives in the store.
package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vialibre/opchat/internal/bus"
	"github.com/vialibre/opchat/internal/gateway"
	"github.com/vialibre/opchat/internal/status"
	"github.com/vialibre/opchat/internal/store"
	"go.uber.org/zap"
)

// retentionDays is the fixed message retention window. Not configurable.
const retentionDays = 30

// Coordinator orchestrates the store and the remote gateway. It is safe for
// sequential use within one sync cycle; the caller guarantees at most one
// concurrent cycle per operator.
type Coordinator struct {
	db     *store.DB
	gw     gateway.Gateway
	bus    *bus.Bus
	logger *zap.Logger
}

// NewCoordinator creates a sync coordinator.
func NewCoordinator(db *store.DB, gw gateway.Gateway, b *bus.Bus, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{db: db, gw: gw, bus: b, logger: logger}
}

// SendMessage persists an outgoing message optimistically, then attempts the
// remote send. The returned message reflects the stored state:
//
//   - server accepted: SENT with the assigned server id, nil error
//   - server rejected: FAILED, the rejection returned as error
//   - connectivity failure or timeout: still PENDING, nil error — the next
//     retry cycle picks it up, and the caller must not surface an error for
//     what may yet be delivered
func (c *Coordinator) SendMessage(ctx context.Context, operatorID, content, senderName string, predefinedID int64) (*store.Message, error) {
	conv, err := c.db.GetOrCreateConversation(operatorID)
	if err != nil {
		return nil, err
	}

	msg := &store.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Content:        content,
		SenderRole:     store.RoleOperator,
		SenderName:     senderName,
		CreatedAt:      time.Now().UnixMilli(),
		SyncStatus:     status.Pending,
		PredefinedID:   predefinedID,
	}
	// Optimistic local commit: the message is visible before any network
	// round trip completes.
	if err := c.db.UpsertMessage(msg); err != nil {
		return nil, err
	}
	if err := c.db.TouchConversation(conv.ID, msg.CreatedAt, 0); err != nil {
		return nil, err
	}
	c.publish(bus.KindMessageUpserted, msgRef{conv.ID, msg.ID})

	return c.attemptSend(ctx, operatorID, msg)
}

// attemptSend runs one remote send for msg, reusing its local id as the
// correlation token, and applies the status-transition rules.
func (c *Coordinator) attemptSend(ctx context.Context, operatorID string, msg *store.Message) (*store.Message, error) {
	res, err := c.gw.Send(ctx, gateway.SendRequest{
		OperatorID:   operatorID,
		Content:      msg.Content,
		SenderRole:   msg.SenderRole,
		SenderName:   msg.SenderName,
		Predefined:   msg.PredefinedID != 0,
		PredefinedID: msg.PredefinedID,
		LocalID:      msg.ID,
	})
	err = gateway.Classify(err)

	switch {
	case err == nil:
		if err := c.db.UpdateSyncStatus(msg.ID, status.Sent, res.ServerID); err != nil {
			return nil, err
		}
		msg.SyncStatus = status.Sent
		msg.ServerID = res.ServerID
		c.publish(bus.KindMessageSendAck, msgRef{msg.ConversationID, msg.ID})
		return msg, nil

	case gateway.IsTransient(err):
		// Possibly delivered but unconfirmed, or never attempted. Either
		// way the message stays PENDING for the next retry cycle. A lost
		// acknowledgment can therefore produce a duplicate send later;
		// the alternative is silently dropping an operator's message.
		c.logger.Warn("send unconfirmed, will retry",
			zap.String("message_id", msg.ID), zap.Error(err))
		if msg.SyncStatus == status.Failed {
			if err := c.db.UpdateSyncStatus(msg.ID, status.Pending, ""); err != nil {
				return nil, err
			}
			msg.SyncStatus = status.Pending
		}
		return msg, nil

	default:
		if uerr := c.db.UpdateSyncStatus(msg.ID, status.Failed, ""); uerr != nil {
			return nil, uerr
		}
		msg.SyncStatus = status.Failed
		c.publish(bus.KindMessageSendFailed, msgRef{msg.ConversationID, msg.ID})
		return msg, err
	}
}

// RetryPending re-attempts every PENDING message of a conversation in
// creation order and returns how many were newly confirmed. Rejections move
// messages to FAILED; transient failures leave them PENDING. Nothing is ever
// silently abandoned.
func (c *Coordinator) RetryPending(ctx context.Context, conversationID, operatorID string) (int, error) {
	pending, err := c.db.PendingMessages(conversationID)
	if err != nil {
		return 0, err
	}

	confirmed := 0
	for i := range pending {
		msg, err := c.attemptSend(ctx, operatorID, &pending[i])
		if err != nil {
			c.logger.Warn("retry rejected",
				zap.String("message_id", pending[i].ID), zap.Error(err))
			continue
		}
		if msg.SyncStatus == status.Sent {
			confirmed++
		}
	}
	return confirmed, nil
}

// RetryMessage re-attempts a single message, the explicit user-facing retry
// for a visibly FAILED send. A FAILED message that fails transiently moves
// back to PENDING so the periodic cycle keeps trying it.
func (c *Coordinator) RetryMessage(ctx context.Context, operatorID, messageID string) (*store.Message, error) {
	msg, err := c.db.GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, &gateway.AppError{Message: "message not found"}
	}
	if msg.SyncStatus == status.Sent {
		return msg, nil
	}
	return c.attemptSend(ctx, operatorID, msg)
}

// FetchNewMessages pulls the remote feed past the conversation's cursor and
// reconciles it into the store. Returns the number of messages inserted.
// If the fetch itself fails nothing is written.
func (c *Coordinator) FetchNewMessages(ctx context.Context, conversationID, operatorID string) (int, error) {
	cursor, err := c.db.LastConfirmedServerID(conversationID)
	if err != nil {
		return 0, err
	}

	remote, err := c.gw.FetchSince(ctx, operatorID, cursor)
	if err != nil {
		return 0, gateway.Classify(err)
	}
	if len(remote) == 0 {
		return 0, nil
	}

	// Remote messages always get fresh local ids: only the operator's own
	// optimistic sends are correlated by local id.
	msgs := make([]*store.Message, 0, len(remote))
	var lastAt int64
	unread := 0
	for _, rm := range remote {
		m := &store.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			Content:        rm.Content,
			SenderRole:     rm.SenderRole,
			SenderName:     rm.SenderName,
			CreatedAt:      rm.CreatedAt.UnixMilli(),
			SyncStatus:     status.Sent,
			ServerID:       rm.ServerID,
		}
		if !rm.ReadAt.IsZero() {
			m.ReadAt = rm.ReadAt.UnixMilli()
		}
		if m.CreatedAt > lastAt {
			lastAt = m.CreatedAt
		}
		if m.SenderRole == store.RoleAnalyst && m.ReadAt == 0 {
			unread++
		}
		msgs = append(msgs, m)
	}

	if err := c.db.UpsertMessages(msgs); err != nil {
		return 0, err
	}
	if err := c.db.TouchConversation(conversationID, lastAt, unread); err != nil {
		return 0, err
	}
	c.publish(bus.KindSyncFetched, conversationID)
	c.publish(bus.KindConversationUpdated, conversationID)
	return len(msgs), nil
}

// MarkMessagesAsRead marks messages read locally first, resets the unread
// counter, then reports the read state to the server best-effort. A gateway
// failure here is logged and swallowed: read state is a local UX concern and
// the server call is advisory.
func (c *Coordinator) MarkMessagesAsRead(ctx context.Context, conversationID string, messageIDs []string) error {
	readAt := time.Now().UnixMilli()
	for _, id := range messageIDs {
		if err := c.db.MarkRead(id, readAt); err != nil {
			return err
		}
	}
	if err := c.db.ResetUnread(conversationID); err != nil {
		return err
	}
	c.publish(bus.KindConversationUpdated, conversationID)

	serverIDs, err := c.db.ServerIDs(messageIDs)
	if err != nil {
		return err
	}
	if len(serverIDs) == 0 {
		return nil
	}
	if err := c.gw.MarkRead(ctx, serverIDs); err != nil {
		c.logger.Warn("read state not propagated",
			zap.Int("count", len(serverIDs)),
			zap.Error(gateway.Classify(err)))
	}
	return nil
}

// CleanOldMessages deletes messages older than the retention window from any
// conversation, regardless of sync status. Pure storage hygiene, no network.
func (c *Coordinator) CleanOldMessages() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).UnixMilli()
	n, err := c.db.DeleteOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.publish(bus.KindSyncCleaned, n)
	}
	return n, nil
}

// RefreshPredefinedResponses replaces the locally cached reply templates with
// the server's current set.
func (c *Coordinator) RefreshPredefinedResponses(ctx context.Context) (int, error) {
	remote, err := c.gw.PredefinedResponses(ctx)
	if err != nil {
		return 0, gateway.Classify(err)
	}

	responses := make([]store.PredefinedResponse, 0, len(remote))
	for _, r := range remote {
		responses = append(responses, store.PredefinedResponse{
			ID:        r.ID,
			Text:      r.Text,
			Category:  r.Category,
			SortOrder: r.SortOrder,
			Active:    r.Active,
		})
	}
	if err := c.db.UpsertPredefinedResponses(responses); err != nil {
		return 0, err
	}
	return len(responses), nil
}

// RunCycle executes one full sync pass for an operator: retry unconfirmed
// sends, pull new messages, sweep expired rows. Steps commit independently;
// a failure in one is logged and does not undo or skip the others. The first
// failure is returned so the trigger can report it.
func (c *Coordinator) RunCycle(ctx context.Context, operatorID string) error {
	conv, err := c.db.GetOrCreateConversation(operatorID)
	if err != nil {
		return err
	}

	var firstErr error
	if n, err := c.RetryPending(ctx, conv.ID, operatorID); err != nil {
		c.logger.Warn("retry step failed", zap.Error(err))
		firstErr = err
	} else if n > 0 {
		c.logger.Info("pending messages confirmed", zap.Int("count", n))
	}

	if n, err := c.FetchNewMessages(ctx, conv.ID, operatorID); err != nil {
		c.logger.Warn("fetch step failed", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	} else if n > 0 {
		c.logger.Info("messages fetched", zap.Int("count", n))
	}

	if n, err := c.CleanOldMessages(); err != nil {
		c.logger.Warn("cleanup step failed", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	} else if n > 0 {
		c.logger.Info("expired messages deleted", zap.Int64("count", n))
	}

	return firstErr
}

// msgRef is the payload for message events.
type msgRef struct {
	ConversationID string
	MessageID      string
}

func (c *Coordinator) publish(kind string, payload any) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
