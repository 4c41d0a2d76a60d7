package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/erazemk/paintstock/internal/idcode"
	"github.com/erazemk/paintstock/internal/metrics"
	"github.com/erazemk/paintstock/internal/model"
	"github.com/erazemk/paintstock/internal/store"
)

// Cursor is the next id the allocator will hand out. It is either a
// numeric counter or a literal an admin typed in, which is used once.
type Cursor struct {
	// Counter is the numeric counter. For a literal cursor it is the
	// counter that resumes after the literal is consumed.
	Counter int64
	// Literal is set when the cursor is an admin-supplied string.
	Literal string
}

// IsLiteral reports whether the cursor holds a literal id.
func (c Cursor) IsLiteral() bool {
	return c.Literal != ""
}

// Formatted returns the id the cursor will produce.
func (c Cursor) Formatted() string {
	if c.IsLiteral() {
		return c.Literal
	}
	code, err := idcode.Encode(c.Counter)
	if err != nil {
		return ""
	}
	return code
}

// NextCursor returns the current allocation cursor.
func (s *Service) NextCursor(ctx context.Context) (Cursor, error) {
	return readCursor(ctx, s.db)
}

// AllocateAuto consumes the cursor and returns a fresh id that no item
// uses. The read and the advance happen in one write-locked transaction,
// so concurrent callers never receive the same id. The caller is expected
// to create the item; use CreateItem to do both atomically.
func (s *Service) AllocateAuto(ctx context.Context) (string, error) {
	var id string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = allocateAuto(ctx, tx)
		return err
	})
	if err != nil {
		return "", err
	}
	metrics.RecordAllocation("auto")
	return id, nil
}

// AllocateCustom checks that a caller-chosen id is usable and returns it
// unchanged. Any non-empty string is accepted; only uniqueness matters.
func (s *Service) AllocateCustom(ctx context.Context, requested string) (string, error) {
	id, err := allocateCustom(ctx, s.db, requested)
	if err != nil {
		return "", err
	}
	metrics.RecordAllocation("custom")
	return id, nil
}

// SetNextCursor overrides the cursor. value may be a positive number, a
// generated code (which sets the counter it encodes) or any other
// non-empty string, which is handed out verbatim by the next auto
// allocation. Collisions are only checked when the cursor is consumed.
func (s *Service) SetNextCursor(ctx context.Context, value string) (Cursor, error) {
	actor, err := requireAdmin(ctx, "set the next id")
	if err != nil {
		return Cursor{}, err
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return Cursor{}, errorf(KindInvalidInput, "next id must not be empty")
	}

	var cursor Cursor
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		counter, numeric, err := parseCounter(value)
		if err != nil {
			return err
		}
		if numeric {
			cursor = Cursor{Counter: counter}
			return writeCounter(ctx, tx, counter)
		}

		cur, err := readCursor(ctx, tx)
		if err != nil {
			return err
		}
		cursor = Cursor{Counter: cur.Counter, Literal: value}
		return store.SetSetting(ctx, tx, store.SettingNextID, value)
	})
	if err != nil {
		return Cursor{}, err
	}

	stored := value
	if !cursor.IsLiteral() {
		stored = strconv.FormatInt(cursor.Counter, 10)
	}
	s.logger.Info("next id set", "next_id", stored, "user", actor.DisplayName())
	s.record(ctx, &model.Entry{
		Action:   model.ActionSetNextID,
		UserName: actor.DisplayName(),
		Details:  model.SetNextIDDetails{NextID: stored},
	})

	return cursor, nil
}

// parseCounter interprets a cursor value. Numbers and generated codes yield
// a counter; anything else is a literal.
func parseCounter(value string) (int64, bool, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n < 1 || n > idcode.MaxCounter {
			return 0, false, errorf(KindInvalidInput, "next id must be between 1 and %d", idcode.MaxCounter)
		}
		return n, true, nil
	}
	if n, ok := idcode.Decode(strings.ToUpper(value)); ok {
		return n, true, nil
	}
	return 0, false, nil
}

func readCursor(ctx context.Context, q store.Querier) (Cursor, error) {
	next, ok, err := store.GetSetting(ctx, q, store.SettingNextID)
	if err != nil {
		return Cursor{}, err
	}
	if !ok || next == "" {
		next = "1"
	}

	if n, err := strconv.ParseInt(next, 10, 64); err == nil && n >= 1 {
		return Cursor{Counter: n}, nil
	}

	counter := int64(1)
	if raw, ok, err := store.GetSetting(ctx, q, store.SettingIDCounter); err != nil {
		return Cursor{}, err
	} else if ok {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n >= 1 {
			counter = n
		}
	}
	return Cursor{Counter: counter, Literal: next}, nil
}

func writeCounter(ctx context.Context, q store.Querier, counter int64) error {
	v := strconv.FormatInt(counter, 10)
	if err := store.SetSetting(ctx, q, store.SettingNextID, v); err != nil {
		return err
	}
	return store.SetSetting(ctx, q, store.SettingIDCounter, v)
}

// allocateAuto must run inside a write-locked transaction.
//
// A literal cursor is used once; afterwards the counter advances by one.
// A literal or generated code that an item already uses is skipped.
func allocateAuto(ctx context.Context, tx *sql.Tx) (string, error) {
	cur, err := readCursor(ctx, tx)
	if err != nil {
		return "", err
	}

	if cur.IsLiteral() {
		taken, err := store.ItemExists(ctx, tx, cur.Literal)
		if err != nil {
			return "", err
		}
		if !taken {
			if err := writeCounter(ctx, tx, cur.Counter+1); err != nil {
				return "", err
			}
			return cur.Literal, nil
		}
	}

	for counter := cur.Counter; ; counter++ {
		code, err := idcode.Encode(counter)
		if err != nil {
			return "", fmt.Errorf("allocating id: %w", err)
		}
		taken, err := store.ItemExists(ctx, tx, code)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}
		if err := writeCounter(ctx, tx, counter+1); err != nil {
			return "", err
		}
		return code, nil
	}
}

func allocateCustom(ctx context.Context, q store.Querier, requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		return "", errorf(KindInvalidInput, "id must not be empty")
	}
	taken, err := store.ItemExists(ctx, q, requested)
	if err != nil {
		return "", err
	}
	if taken {
		return "", duplicateID(requested)
	}
	return requested, nil
}
