package attendance

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vialibre/opchat/internal/gateway"
	"github.com/vialibre/opchat/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// mockUploader implements gateway.Gateway for the attendance paths.
type mockUploader struct {
	gateway.Gateway
	batches [][]gateway.AttendanceRecord
	err     error
}

func (m *mockUploader) UploadAttendance(ctx context.Context, records []gateway.AttendanceRecord) error {
	m.batches = append(m.batches, records)
	return m.err
}

func TestRecordAndUpload(t *testing.T) {
	db := testDB(t)
	mock := &mockUploader{}
	r := NewRecorder(db, mock, nil)

	if _, err := r.Record("12345", "ENTRADA", time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Record("12345", "SALIDA", time.Now()); err != nil {
		t.Fatal(err)
	}

	n, err := r.UploadPending(context.Background(), "12345")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("uploaded = %d, want 2", n)
	}
	if len(mock.batches) != 1 || len(mock.batches[0]) != 2 {
		t.Errorf("batches = %+v, want one batch of 2", mock.batches)
	}
	if mock.batches[0][0].Kind != "ENTRADA" {
		t.Errorf("batch order = %+v, want oldest first", mock.batches[0])
	}

	// Nothing left pending; a second upload is a silent no-op.
	n, err = r.UploadPending(context.Background(), "12345")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || len(mock.batches) != 1 {
		t.Errorf("second upload n=%d batches=%d, want 0 and 1", n, len(mock.batches))
	}
}

func TestUploadTransientFailureKeepsPending(t *testing.T) {
	db := testDB(t)
	mock := &mockUploader{err: gateway.ErrUnreachable}
	r := NewRecorder(db, mock, nil)

	if _, err := r.Record("12345", "ENTRADA", time.Now()); err != nil {
		t.Fatal(err)
	}

	n, err := r.UploadPending(context.Background(), "12345")
	if !errors.Is(err, gateway.ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
	if n != 0 {
		t.Errorf("uploaded = %d, want 0", n)
	}

	pending, _ := db.PendingAttendance("12345")
	if len(pending) != 1 {
		t.Errorf("pending = %d after failed upload, want 1", len(pending))
	}
}
