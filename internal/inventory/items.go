package inventory

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/paintstock/internal/idcode"
	"github.com/erazemk/paintstock/internal/metrics"
	"github.com/erazemk/paintstock/internal/model"
	"github.com/erazemk/paintstock/internal/store"
)

// NewItem holds the fields for CreateItem. An empty ID asks for an
// automatically allocated one.
type NewItem struct {
	ID          string
	Name        string
	Quantity    int
	MinQuantity *int
	Price       decimal.NullDecimal
	Type        string
	Location    string
	Description string
}

// ItemUpdate is a partial edit. Nil fields are left alone. For MinQuantity
// and Price a non-nil pointer to an invalid (null) value clears the field.
//
// Action and QuantityChange are hints sent by older clients: Action
// check_in or check_out turns the edit into a stock movement that any user
// may perform, with QuantityChange as its signed size.
type ItemUpdate struct {
	Name        *string
	Quantity    *int
	MinQuantity *sql.NullInt64
	Price       *decimal.NullDecimal
	Type        *string
	Location    *string
	Description *string

	Action         model.Action
	QuantityChange *int
}

// GetItem returns an item by id. When there is no exact match the id is
// normalized (trimmed, upper-cased, short legacy numbers padded) and
// looked up again.
func (s *Service) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.db, id)
	if err != nil || item != nil {
		return item, err
	}
	if norm := idcode.Normalize(id); norm != id {
		item, err = store.GetItem(ctx, s.db, norm)
		if err != nil || item != nil {
			return item, err
		}
	}
	return nil, notFound(id)
}

// ListItems returns every item ordered by id.
func (s *Service) ListItems(ctx context.Context) ([]model.Item, error) {
	return store.ListItems(ctx, s.db)
}

// AuditLog returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]model.Entry, error) {
	return store.ListAudit(ctx, s.db, limit)
}

// ItemHistory returns the audit entries recorded against an item id.
func (s *Service) ItemHistory(ctx context.Context, id string) ([]model.Entry, error) {
	return store.ListAuditForItem(ctx, s.db, id)
}

// CreateItem allocates an id if none is given, stores the item and records
// an add entry whose quantity and newQuantity are the starting quantity.
func (s *Service) CreateItem(ctx context.Context, in NewItem) (*model.Item, error) {
	actor, err := requireAdmin(ctx, "add items")
	if err != nil {
		return nil, err
	}
	if err := validateNewItem(in); err != nil {
		return nil, err
	}

	now := s.now()
	by := actor.DisplayName()
	mode := "custom"
	if in.ID == "" {
		mode = "auto"
	}

	var item *model.Item
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var id string
		var err error
		if mode == "auto" {
			id, err = allocateAuto(ctx, tx)
		} else {
			id, err = allocateCustom(ctx, tx, in.ID)
		}
		if err != nil {
			return err
		}

		item, err = store.CreateItem(ctx, tx, &model.Item{
			ID:            id,
			Name:          strings.TrimSpace(in.Name),
			Quantity:      in.Quantity,
			MinQuantity:   in.MinQuantity,
			Price:         in.Price,
			Type:          in.Type,
			Location:      in.Location,
			Description:   in.Description,
			LastScanned:   &now,
			LastScannedBy: by,
		}, now)
		return translate(err, id)
	})
	metrics.RecordTransaction(string(TxAdd), err)
	if err != nil {
		return nil, err
	}
	metrics.RecordAllocation(mode)

	s.logger.Info("item added", "item", item.ID, "quantity", item.Quantity, "user", by)
	s.record(ctx, &model.Entry{
		Action:   model.ActionAdd,
		ItemID:   item.ID,
		UserName: by,
		Details:  model.AddDetails{Name: item.Name, Quantity: item.Quantity, NewQuantity: item.Quantity},
	})

	return item, nil
}

// UpdateItem edits an item. A check_in or check_out hint routes the call
// through Apply; otherwise only an admin may edit, and only fields whose
// value actually changes are written and recorded. A quantity change made
// this way is logged as an update with the magnitude of the change.
func (s *Service) UpdateItem(ctx context.Context, id string, upd ItemUpdate) (*model.Item, error) {
	if upd.Action == model.ActionCheckIn || upd.Action == model.ActionCheckOut {
		return s.updateAsMovement(ctx, id, upd)
	}

	actor, err := requireAdmin(ctx, "edit items")
	if err != nil {
		return nil, err
	}
	if err := validateUpdate(upd); err != nil {
		return nil, err
	}

	now := s.now()
	by := actor.DisplayName()

	var (
		item    *model.Item
		changes map[string]any
		old     int
		qtySet  bool
	)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := store.GetItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound(id)
		}

		var patch store.ItemPatch
		patch, changes = diff(current, upd)
		if patch.Empty() {
			item = current
			return nil
		}
		if patch.Quantity != nil {
			old = current.Quantity
			qtySet = true
			patch.LastScanned = &now
			patch.LastScannedBy = &by
		}

		item, err = store.UpdateItem(ctx, tx, id, patch, now)
		return translate(err, id)
	})
	if qtySet {
		metrics.RecordTransaction(string(TxManualAdjust), err)
	}
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return item, nil
	}

	details := model.UpdateDetails{Changes: changes}
	if qtySet {
		change := absInt(item.Quantity - old)
		newQty := item.Quantity
		details.QuantityChange = &change
		details.OldQuantity = &old
		details.NewQuantity = &newQty
	}

	s.logger.Info("item updated", "item", id, "fields", len(changes), "user", by)
	s.record(ctx, &model.Entry{
		Action:   model.ActionUpdate,
		ItemID:   id,
		UserName: by,
		Details:  details,
	})

	return item, nil
}

func (s *Service) updateAsMovement(ctx context.Context, id string, upd ItemUpdate) (*model.Item, error) {
	kind := TxCheckIn
	if upd.Action == model.ActionCheckOut {
		kind = TxCheckOut
	}

	var (
		res *Result
		err error
	)
	switch {
	case upd.QuantityChange != nil:
		res, err = s.Apply(ctx, id, *upd.QuantityChange, kind)
	case upd.Quantity != nil:
		res, err = s.applySetTo(ctx, id, *upd.Quantity, kind)
	default:
		return nil, errorf(KindInvalidInput, "a %s needs a quantity", upd.Action)
	}
	if err != nil {
		return nil, err
	}
	return res.Item, nil
}

// DeleteItem removes an item and records its quantity at the time. It
// returns the removed item.
func (s *Service) DeleteItem(ctx context.Context, id string) (*model.Item, error) {
	actor, err := requireAdmin(ctx, "delete items")
	if err != nil {
		return nil, err
	}

	var item *model.Item
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = store.GetItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return notFound(id)
		}
		deleted, err := store.DeleteItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound(id)
		}
		return nil
	})
	metrics.RecordTransaction(string(TxDelete), err)
	if err != nil {
		return nil, err
	}

	by := actor.DisplayName()
	s.logger.Info("item deleted", "item", id, "quantity", item.Quantity, "user", by)
	s.record(ctx, &model.Entry{
		Action:   model.ActionDelete,
		ItemID:   id,
		UserName: by,
		Details:  model.DeleteDetails{Name: item.Name, OldQuantity: item.Quantity, NewQuantity: 0},
	})

	return item, nil
}

// RenameItem moves an item to a new id. The entry is recorded under the
// old id; existing entries keep the id they were written with.
func (s *Service) RenameItem(ctx context.Context, oldID, newID string) (*model.Item, error) {
	actor, err := requireAdmin(ctx, "change item ids")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(newID) == "" {
		return nil, errorf(KindInvalidInput, "new id must not be empty")
	}
	if newID == oldID {
		return nil, errorf(KindInvalidInput, "new id is the same as the current id")
	}

	now := s.now()
	var item *model.Item
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = store.RenameItem(ctx, tx, oldID, newID, now)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, store.ErrNotFound):
			return notFound(oldID)
		case errors.Is(err, store.ErrDuplicateID):
			return duplicateID(newID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	by := actor.DisplayName()
	s.logger.Info("item id changed", "old", oldID, "new", newID, "user", by)
	s.record(ctx, &model.Entry{
		Action:   model.ActionChangeID,
		ItemID:   oldID,
		UserName: by,
		Details:  model.ChangeIDDetails{OldID: oldID, NewID: newID},
	})

	return item, nil
}

// MinQuantity returns the global low-stock threshold.
func (s *Service) MinQuantity(ctx context.Context) (int, error) {
	return store.GetMinQuantity(ctx, s.db)
}

// SetMinQuantity changes the global low-stock threshold.
func (s *Service) SetMinQuantity(ctx context.Context, n int) error {
	actor, err := requireAdmin(ctx, "change the minimum quantity")
	if err != nil {
		return err
	}
	if n < 0 {
		return errorf(KindInvalidInput, "minimum quantity must not be negative")
	}

	if err := store.SetSetting(ctx, s.db, store.SettingMinQuantity, strconv.Itoa(n)); err != nil {
		return err
	}

	by := actor.DisplayName()
	s.logger.Info("minimum quantity set", "min_quantity", n, "user", by)
	s.record(ctx, &model.Entry{
		Action:   model.ActionSetMinQuantity,
		UserName: by,
		Details:  model.SetMinQuantityDetails{MinQuantity: n},
	})
	return nil
}

func validateNewItem(in NewItem) error {
	if strings.TrimSpace(in.Name) == "" {
		return errorf(KindInvalidInput, "name is required")
	}
	if in.Quantity < 0 {
		return errorf(KindInvalidInput, "quantity must not be negative")
	}
	if in.MinQuantity != nil && *in.MinQuantity < 0 {
		return errorf(KindInvalidInput, "minimum quantity must not be negative")
	}
	if in.Price.Valid && in.Price.Decimal.IsNegative() {
		return errorf(KindInvalidInput, "price must not be negative")
	}
	if !model.ValidItemType(in.Type) {
		return errorf(KindInvalidInput, "unknown item type %q", in.Type)
	}
	return nil
}

func validateUpdate(upd ItemUpdate) error {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return errorf(KindInvalidInput, "name is required")
	}
	if upd.Quantity != nil && *upd.Quantity < 0 {
		return errorf(KindInvalidInput, "quantity must not be negative")
	}
	if upd.MinQuantity != nil && upd.MinQuantity.Valid && upd.MinQuantity.Int64 < 0 {
		return errorf(KindInvalidInput, "minimum quantity must not be negative")
	}
	if upd.Price != nil && upd.Price.Valid && upd.Price.Decimal.IsNegative() {
		return errorf(KindInvalidInput, "price must not be negative")
	}
	if upd.Type != nil && !model.ValidItemType(*upd.Type) {
		return errorf(KindInvalidInput, "unknown item type %q", *upd.Type)
	}
	return nil
}

// diff keeps only the fields of upd that differ from cur and returns them
// both as a store patch and as the audit change set.
func diff(cur *model.Item, upd ItemUpdate) (store.ItemPatch, map[string]any) {
	var patch store.ItemPatch
	changes := map[string]any{}

	if upd.Name != nil && *upd.Name != cur.Name {
		patch.Name = upd.Name
		changes["name"] = *upd.Name
	}
	if upd.Quantity != nil && *upd.Quantity != cur.Quantity {
		patch.Quantity = upd.Quantity
		changes["quantity"] = *upd.Quantity
	}
	if upd.MinQuantity != nil {
		same := cur.MinQuantity == nil && !upd.MinQuantity.Valid ||
			cur.MinQuantity != nil && upd.MinQuantity.Valid && int64(*cur.MinQuantity) == upd.MinQuantity.Int64
		if !same {
			patch.MinQuantity = upd.MinQuantity
			if upd.MinQuantity.Valid {
				changes["minQuantity"] = upd.MinQuantity.Int64
			} else {
				changes["minQuantity"] = nil
			}
		}
	}
	if upd.Price != nil {
		same := !cur.Price.Valid && !upd.Price.Valid ||
			cur.Price.Valid && upd.Price.Valid && cur.Price.Decimal.Equal(upd.Price.Decimal)
		if !same {
			patch.Price = upd.Price
			if upd.Price.Valid {
				changes["price"] = upd.Price.Decimal
			} else {
				changes["price"] = nil
			}
		}
	}
	if upd.Type != nil && *upd.Type != cur.Type {
		patch.Type = upd.Type
		changes["type"] = *upd.Type
	}
	if upd.Location != nil && *upd.Location != cur.Location {
		patch.Location = upd.Location
		changes["location"] = *upd.Location
	}
	if upd.Description != nil && *upd.Description != cur.Description {
		patch.Description = upd.Description
		changes["description"] = *upd.Description
	}

	return patch, changes
}
