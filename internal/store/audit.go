package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/paintstock/internal/model"
)

// AppendAudit stores e and fills in its sequence id. A zero Timestamp is set
// to the current time. There is intentionally no way to change or remove an
// entry afterwards; the schema rejects both.
func AppendAudit(ctx context.Context, q Querier, e *model.Entry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	details, err := model.MarshalDetails(e.Details)
	if err != nil {
		return 0, fmt.Errorf("encoding audit details: %w", err)
	}

	var itemID any
	if e.ItemID != "" {
		itemID = e.ItemID
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO audit_log (action, item_id, user_name, details, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		string(e.Action), itemID, e.UserName, string(details), model.FormatTime(e.Timestamp),
	)
	if err != nil {
		return 0, fmt.Errorf("appending audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting audit entry id: %w", err)
	}
	e.ID = id
	return id, nil
}

// ListAudit returns up to limit entries, newest first. A limit of zero or
// less returns the whole log. Legacy encodings are normalized on the way out.
//
// Entries are ordered by sequence id, so the most recent append is always
// first even if its timestamp is older than an earlier entry's.
func ListAudit(ctx context.Context, q Querier, limit int) ([]model.Entry, error) {
	query := `SELECT id, action, item_id, user_name, details, timestamp
		FROM audit_log ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListAuditForItem returns every entry recorded against itemID, newest first.
func ListAuditForItem(ctx context.Context, q Querier, itemID string) ([]model.Entry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, action, item_id, user_name, details, timestamp
		 FROM audit_log WHERE item_id = ? ORDER BY id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audit log for item: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]model.Entry, error) {
	entries := []model.Entry{}
	for rows.Next() {
		var (
			e         model.Entry
			action    string
			itemID    sql.NullString
			details   string
			timestamp string
		)
		if err := rows.Scan(&e.ID, &action, &itemID, &e.UserName, &details, &timestamp); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		var err error
		e.Action, e.Details, err = model.DecodeEntry(action, []byte(details))
		if err != nil {
			return nil, fmt.Errorf("decoding audit entry %d: %w", e.ID, err)
		}
		if e.Timestamp, err = model.ParseTime(timestamp); err != nil {
			return nil, fmt.Errorf("parsing audit entry %d timestamp: %w", e.ID, err)
		}
		e.ItemID = itemID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
