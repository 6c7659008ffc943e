package store

import "strings"

// InsertAttendance records a shift mark locally, pending upload.
func (db *DB) InsertAttendance(e *AttendanceEntry) error {
	_, err := db.Exec(`
		INSERT INTO attendance_entries (id, operator_id, kind, recorded_at, uploaded)
		VALUES (?, ?, ?, ?, 0)`,
		e.ID, e.OperatorID, e.Kind, e.RecordedAt)
	return err
}

// PendingAttendance returns entries not yet uploaded, oldest first.
func (db *DB) PendingAttendance(operatorID string) ([]AttendanceEntry, error) {
	rows, err := db.Query(`
		SELECT id, operator_id, kind, recorded_at, uploaded
		FROM attendance_entries
		WHERE operator_id = ? AND uploaded = 0
		ORDER BY recorded_at ASC`, operatorID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []AttendanceEntry
	for rows.Next() {
		var e AttendanceEntry
		if err := rows.Scan(&e.ID, &e.OperatorID, &e.Kind, &e.RecordedAt, &e.Uploaded); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkAttendanceUploaded flags a batch of entries as uploaded.
func (db *DB) MarkAttendanceUploaded(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := db.Exec(`UPDATE attendance_entries SET uploaded = 1 WHERE id IN (`+placeholders+`)`, args...)
	return err
}
