// Package attendance records shift marks locally and uploads them in batches.
// Marks survive offline periods the same way messages do: written locally
// first, flagged once the server accepts the batch.
package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vialibre/opchat/internal/gateway"
	"github.com/vialibre/opchat/internal/store"
	"go.uber.org/zap"
)

// Recorder owns the attendance lifecycle for one operator profile.
type Recorder struct {
	db     *store.DB
	gw     gateway.Gateway
	logger *zap.Logger
}

// NewRecorder creates an attendance recorder.
func NewRecorder(db *store.DB, gw gateway.Gateway, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: db, gw: gw, logger: logger}
}

// Record stores a shift mark locally, pending upload.
func (r *Recorder) Record(operatorID, kind string, at time.Time) (*store.AttendanceEntry, error) {
	e := &store.AttendanceEntry{
		ID:         uuid.NewString(),
		OperatorID: operatorID,
		Kind:       kind,
		RecordedAt: at.UnixMilli(),
	}
	if err := r.db.InsertAttendance(e); err != nil {
		return nil, err
	}
	return e, nil
}

// UploadPending posts all not-yet-uploaded marks in one batch and flags them
// on success. A transient failure leaves every entry pending for the next
// cycle; nothing is flagged unless the server accepted the whole batch.
func (r *Recorder) UploadPending(ctx context.Context, operatorID string) (int, error) {
	pending, err := r.db.PendingAttendance(operatorID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	records := make([]gateway.AttendanceRecord, 0, len(pending))
	ids := make([]string, 0, len(pending))
	for _, e := range pending {
		records = append(records, gateway.AttendanceRecord{
			LocalID:    e.ID,
			OperatorID: e.OperatorID,
			Kind:       e.Kind,
			RecordedAt: time.UnixMilli(e.RecordedAt),
		})
		ids = append(ids, e.ID)
	}

	if err := r.gw.UploadAttendance(ctx, records); err != nil {
		return 0, gateway.Classify(err)
	}
	if err := r.db.MarkAttendanceUploaded(ids); err != nil {
		return 0, err
	}
	r.logger.Info("attendance uploaded", zap.Int("count", len(ids)))
	return len(ids), nil
}
