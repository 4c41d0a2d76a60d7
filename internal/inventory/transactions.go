package inventory

import (
	"context"
	"database/sql"

	"github.com/erazemk/paintstock/internal/metrics"
	"github.com/erazemk/paintstock/internal/model"
	"github.com/erazemk/paintstock/internal/store"
)

// TxKind tags what a quantity transaction represents.
type TxKind string

// Transaction kinds.
const (
	TxCheckIn      TxKind = "check_in"
	TxCheckOut     TxKind = "check_out"
	TxManualAdjust TxKind = "manual_adjust"
	TxAdd          TxKind = "add"
	TxDelete       TxKind = "delete"
)

// Result is the outcome of a quantity transaction.
type Result struct {
	// Item is the item after the transaction, or the removed item for a
	// delete.
	Item  *model.Item
	Entry model.Entry
}

// Apply changes an item's quantity by delta and records the change.
//
// For check_in and check_out only the magnitude of delta matters; the kind
// decides the direction. The new quantity is max(0, old+delta) and the
// audit entry carries the change actually applied, so checking out 1000
// from 5 records a change of 5. manual_adjust uses delta as signed and
// requires an admin. delete removes the item. add is rejected; new items
// go through CreateItem.
func (s *Service) Apply(ctx context.Context, itemID string, delta int, kind TxKind) (*Result, error) {
	res, err := s.apply(ctx, itemID, delta, nil, kind)
	metrics.RecordTransaction(string(kind), err)
	return res, err
}

// applySetTo moves an item to a target total. The delta is taken from the
// quantity read inside the transaction, so a concurrent movement is never
// overwritten. The target must lie in the direction of kind.
func (s *Service) applySetTo(ctx context.Context, itemID string, target int, kind TxKind) (*Result, error) {
	if target < 0 {
		return nil, errorf(KindInvalidInput, "quantity must not be negative")
	}
	res, err := s.apply(ctx, itemID, 0, &target, kind)
	metrics.RecordTransaction(string(kind), err)
	return res, err
}

func (s *Service) apply(ctx context.Context, itemID string, delta int, target *int, kind TxKind) (*Result, error) {
	actor := model.ActorFromContext(ctx)

	var action model.Action
	switch kind {
	case TxCheckIn, TxCheckOut:
		action = model.ActionCheckIn
		if kind == TxCheckOut {
			action = model.ActionCheckOut
		}
		if target != nil {
			break
		}
		if delta == 0 {
			return nil, errorf(KindInvalidInput, "quantity must be a positive number")
		}
		delta = absInt(delta)
		if kind == TxCheckOut {
			delta = -delta
		}
	case TxManualAdjust:
		if _, err := requireAdmin(ctx, "adjust quantities"); err != nil {
			return nil, err
		}
		action = model.ActionUpdate
	case TxDelete:
		item, err := s.DeleteItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		return &Result{Item: item}, nil
	case TxAdd:
		return nil, errorf(KindInvalidInput, "new items are added with create, not as a transaction")
	default:
		return nil, errorf(KindInvalidInput, "unknown transaction kind %q", kind)
	}

	now := s.now()
	var (
		item     *model.Item
		old, qty int
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := store.GetItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound(itemID)
		}

		old = current.Quantity
		if target != nil {
			delta = *target - old
			if err := checkDirection(kind, delta); err != nil {
				return err
			}
		}
		qty = max(0, old+delta)
		by := actor.DisplayName()
		item, err = store.UpdateItem(ctx, tx, itemID, store.ItemPatch{
			Quantity:      &qty,
			LastScanned:   &now,
			LastScannedBy: &by,
		}, now)
		return translate(err, itemID)
	})
	if err != nil {
		return nil, err
	}

	change := absInt(qty - old)
	entry := model.Entry{
		Action:   action,
		ItemID:   itemID,
		UserName: actor.DisplayName(),
	}
	if action == model.ActionUpdate {
		entry.Details = model.UpdateDetails{
			Changes:        map[string]any{"quantity": qty},
			QuantityChange: &change,
			OldQuantity:    &old,
			NewQuantity:    &qty,
		}
	} else {
		entry.Details = model.MovementDetails{QuantityChange: change, OldQuantity: old, NewQuantity: qty}
		metrics.RecordMovement(string(action), change)
	}

	s.logger.Info("quantity changed",
		"item", itemID, "action", action, "old", old, "new", qty, "user", entry.UserName)
	s.record(ctx, &entry)

	return &Result{Item: item, Entry: entry}, nil
}

func checkDirection(kind TxKind, delta int) error {
	switch {
	case delta == 0:
		return errorf(KindInvalidInput, "quantity is unchanged")
	case kind == TxCheckIn && delta < 0:
		return errorf(KindInvalidInput, "a check in cannot lower the quantity")
	case kind == TxCheckOut && delta > 0:
		return errorf(KindInvalidInput, "a check out cannot raise the quantity")
	}
	return nil
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
