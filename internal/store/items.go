package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/paintstock/internal/model"
)

const itemColumns = `id, name, quantity, min_quantity, price, type, location, description,
	last_scanned, last_scanned_by, created_at, updated_at`

// ItemPatch lists the writable item fields. Nil fields are left unchanged.
// The id is deliberately absent; use RenameItem.
type ItemPatch struct {
	Name          *string
	Quantity      *int
	MinQuantity   *sql.NullInt64
	Price         *decimal.NullDecimal
	Type          *string
	Location      *string
	Description   *string
	LastScanned   *time.Time
	LastScannedBy *string
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Quantity == nil && p.MinQuantity == nil && p.Price == nil &&
		p.Type == nil && p.Location == nil && p.Description == nil &&
		p.LastScanned == nil && p.LastScannedBy == nil
}

// CreateItem inserts a new item. CreatedAt and UpdatedAt are set to now.
func CreateItem(ctx context.Context, q Querier, item *model.Item, now time.Time) (*model.Item, error) {
	ts := model.FormatTime(now)
	var lastScanned any
	if item.LastScanned != nil {
		lastScanned = model.FormatTime(*item.LastScanned)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Quantity, item.MinQuantity, item.Price, item.Type,
		item.Location, item.Description, lastScanned, item.LastScannedBy, ts, ts,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating item %q: %w", item.ID, ErrDuplicateID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, q, item.ID)
}

// GetItem returns an item by id, or nil if there is none.
func GetItem(ctx context.Context, q Querier, id string) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemExists reports whether an item with the id exists.
func ItemExists(ctx context.Context, q Querier, id string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking item: %w", err)
	}
	return n > 0, nil
}

// ListItems returns all items ordered by id.
func ListItems(ctx context.Context, q Querier) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem applies patch to the item and bumps updated_at.
func UpdateItem(ctx context.Context, q Querier, id string, patch ItemPatch, now time.Time) (*model.Item, error) {
	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Quantity != nil {
		set("quantity", *patch.Quantity)
	}
	if patch.MinQuantity != nil {
		set("min_quantity", *patch.MinQuantity)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.Type != nil {
		set("type", *patch.Type)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.LastScanned != nil {
		set("last_scanned", model.FormatTime(*patch.LastScanned))
	}
	if patch.LastScannedBy != nil {
		set("last_scanned_by", *patch.LastScannedBy)
	}
	set("updated_at", model.FormatTime(now))
	args = append(args, id)

	result, err := q.ExecContext(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("updating item %q: %w", id, ErrNotFound)
	}

	return GetItem(ctx, q, id)
}

// DeleteItem removes an item. It reports false if there was nothing to delete.
func DeleteItem(ctx context.Context, q Querier, id string) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return n > 0, nil
}

// RenameItem changes an item's key, leaving every other field intact apart
// from updated_at.
func RenameItem(ctx context.Context, q Querier, oldID, newID string, now time.Time) (*model.Item, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET id = ?, updated_at = ? WHERE id = ?`,
		newID, model.FormatTime(now), oldID,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("renaming item to %q: %w", newID, ErrDuplicateID)
	}
	if err != nil {
		return nil, fmt.Errorf("renaming item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("renaming item %q: %w", oldID, ErrNotFound)
	}

	return GetItem(ctx, q, newID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var lastScanned sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(
		&item.ID, &item.Name, &item.Quantity, &item.MinQuantity, &item.Price, &item.Type,
		&item.Location, &item.Description, &lastScanned, &item.LastScannedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if item.CreatedAt, err = model.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if item.UpdatedAt, err = model.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if lastScanned.Valid {
		t, err := model.ParseTime(lastScanned.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_scanned: %w", err)
		}
		item.LastScanned = &t
	}
	return item, nil
}
