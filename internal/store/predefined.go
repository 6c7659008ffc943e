package store

import "time"

// UpsertPredefinedResponses replaces the cached reply templates with the
// server's current set, in one transaction.
func (db *DB) UpsertPredefinedResponses(responses []PredefinedResponse) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, r := range responses {
		if _, err := tx.Exec(`
			INSERT INTO predefined_responses (id, text, category, sort_order, active, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				text = excluded.text,
				category = excluded.category,
				sort_order = excluded.sort_order,
				active = excluded.active,
				updated_at = excluded.updated_at`,
			r.ID, r.Text, r.Category, r.SortOrder, r.Active, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListPredefinedResponses returns cached templates ordered for display.
func (db *DB) ListPredefinedResponses(activeOnly bool) ([]PredefinedResponse, error) {
	query := `
		SELECT id, text, category, sort_order, active
		FROM predefined_responses`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY sort_order ASC, id ASC`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []PredefinedResponse
	for rows.Next() {
		var r PredefinedResponse
		if err := rows.Scan(&r.ID, &r.Text, &r.Category, &r.SortOrder, &r.Active); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
