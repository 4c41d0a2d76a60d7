package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/paintstock/internal/db"
	"github.com/erazemk/paintstock/internal/model"
)

var testNow = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	minQty := 5
	item, err := CreateItem(ctx, database, &model.Item{
		ID:          "H66AAA00001",
		Name:        "Eggshell White",
		Quantity:    20,
		MinQuantity: &minQty,
		Price:       decimal.NewNullDecimal(decimal.RequireFromString("34.99")),
		Type:        model.ItemTypePaint,
		Location:    "Bay 3",
	}, testNow)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Name != "Eggshell White" {
		t.Errorf("expected name 'Eggshell White', got %q", item.Name)
	}
	if item.MinQuantity == nil || *item.MinQuantity != 5 {
		t.Errorf("expected minQuantity 5, got %v", item.MinQuantity)
	}
	if !item.Price.Valid || item.Price.Decimal.String() != "34.99" {
		t.Errorf("expected price 34.99, got %v", item.Price)
	}
	if !item.CreatedAt.Equal(testNow) {
		t.Errorf("expected createdAt %v, got %v", testNow, item.CreatedAt)
	}
	if item.LastScanned != nil {
		t.Errorf("expected no lastScanned, got %v", item.LastScanned)
	}

	missing, err := GetItem(ctx, database, "nope")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing item")
	}
}

func TestCreateItemDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, &model.Item{ID: "A1", Name: "First"}, testNow)
	_, err := CreateItem(ctx, database, &model.Item{ID: "A1", Name: "Second"}, testNow)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestListItemsOrderedByID(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"C", "A", "B"} {
		if _, err := CreateItem(ctx, database, &model.Item{ID: id, Name: id}, testNow); err != nil {
			t.Fatalf("CreateItem %s: %v", id, err)
		}
	}

	items, err := ListItems(ctx, database)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"A", "B", "C"} {
		if items[i].ID != want {
			t.Errorf("items[%d]: expected %q, got %q", i, want, items[i].ID)
		}
	}
}

func TestUpdateItemPatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	minQty := 10
	CreateItem(ctx, database, &model.Item{ID: "A1", Name: "Stain", Quantity: 4, MinQuantity: &minQty, Location: "Shelf 1"}, testNow)

	later := testNow.Add(time.Hour)
	name := "Walnut Stain"
	qty := 7
	item, err := UpdateItem(ctx, database, "A1", ItemPatch{
		Name:        &name,
		Quantity:    &qty,
		MinQuantity: &sql.NullInt64{},
	}, later)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if item.Name != "Walnut Stain" || item.Quantity != 7 {
		t.Errorf("unexpected item after update: %+v", item)
	}
	if item.MinQuantity != nil {
		t.Errorf("expected minQuantity cleared, got %d", *item.MinQuantity)
	}
	if item.Location != "Shelf 1" {
		t.Errorf("expected location untouched, got %q", item.Location)
	}
	if !item.UpdatedAt.Equal(later) || !item.CreatedAt.Equal(testNow) {
		t.Errorf("unexpected timestamps: created %v updated %v", item.CreatedAt, item.UpdatedAt)
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	name := "x"
	_, err := UpdateItem(context.Background(), database, "ghost", ItemPatch{Name: &name}, testNow)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, &model.Item{ID: "A1", Name: "Dye"}, testNow)

	deleted, err := DeleteItem(ctx, database, "A1")
	if err != nil || !deleted {
		t.Fatalf("DeleteItem: deleted=%v err=%v", deleted, err)
	}

	deleted, err = DeleteItem(ctx, database, "A1")
	if err != nil {
		t.Fatalf("second DeleteItem: %v", err)
	}
	if deleted {
		t.Error("expected second delete to report false")
	}
}

func TestRenameItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	scanned := testNow.Add(-time.Hour)
	CreateItem(ctx, database, &model.Item{
		ID: "OLD1", Name: "Clear Coat", Quantity: 3, Location: "Bin 9",
		LastScanned: &scanned, LastScannedBy: "Sam",
	}, testNow)

	renamed, err := RenameItem(ctx, database, "OLD1", "NEW1", testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("RenameItem: %v", err)
	}

	old, _ := GetItem(ctx, database, "OLD1")
	if old != nil {
		t.Error("expected old id to be gone")
	}
	if renamed.ID != "NEW1" || renamed.Name != "Clear Coat" || renamed.Quantity != 3 ||
		renamed.Location != "Bin 9" || renamed.LastScannedBy != "Sam" {
		t.Errorf("expected other fields unchanged, got %+v", renamed)
	}
	if renamed.LastScanned == nil || !renamed.LastScanned.Equal(scanned) {
		t.Errorf("expected lastScanned preserved, got %v", renamed.LastScanned)
	}
}

func TestRenameItemConflicts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, &model.Item{ID: "A", Name: "a"}, testNow)
	CreateItem(ctx, database, &model.Item{ID: "B", Name: "b"}, testNow)

	if _, err := RenameItem(ctx, database, "A", "B", testNow); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := RenameItem(ctx, database, "ghost", "C", testNow); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
