package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/paintstock/internal/db"
	"github.com/erazemk/paintstock/internal/model"
)

func TestAppendAndListAudit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first := &model.Entry{
		Action:    model.ActionAdd,
		ItemID:    "A1",
		UserName:  "Admin",
		Details:   model.AddDetails{Quantity: 4, NewQuantity: 4},
		Timestamp: testNow,
	}
	if _, err := AppendAudit(ctx, database, first); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}
	second := &model.Entry{
		Action:    model.ActionCheckOut,
		ItemID:    "A1",
		UserName:  "Sam",
		Details:   model.MovementDetails{QuantityChange: 1, OldQuantity: 4, NewQuantity: 3},
		Timestamp: testNow.Add(time.Minute),
	}
	if _, err := AppendAudit(ctx, database, second); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}

	entries, err := ListAudit(ctx, database, 10)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != second.ID {
		t.Errorf("expected newest entry first, got id %d", entries[0].ID)
	}
	got, ok := entries[0].Details.(model.MovementDetails)
	if !ok {
		t.Fatalf("expected MovementDetails, got %T", entries[0].Details)
	}
	if got.QuantityChange != 1 || got.OldQuantity != 4 || got.NewQuantity != 3 {
		t.Errorf("unexpected details: %+v", got)
	}

	limited, _ := ListAudit(ctx, database, 1)
	if len(limited) != 1 || limited[0].ID != second.ID {
		t.Errorf("expected only the newest entry, got %+v", limited)
	}
}

func TestAppendAuditDefaultsTimestamp(t *testing.T) {
	database := db.NewTestDB(t)

	e := &model.Entry{Action: model.ActionSetNextID, UserName: "Admin", Details: model.SetNextIDDetails{NextID: "7"}}
	before := time.Now().Add(-time.Second)
	if _, err := AppendAudit(context.Background(), database, e); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}
	if e.Timestamp.Before(before) {
		t.Errorf("expected timestamp to be set, got %v", e.Timestamp)
	}

	entries, _ := ListAudit(context.Background(), database, 0)
	if len(entries) != 1 || entries[0].ItemID != "" {
		t.Errorf("expected one global entry with no item id, got %+v", entries)
	}
}

func TestListAuditNormalizesLegacyRows(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := database.Exec(
		`INSERT INTO audit_log (action, item_id, user_name, details, timestamp)
		 VALUES ('update', 'A1', 'Sam', '{"quantity":15,"_actionType":"check_out","_quantityChange":-5}', ?)`,
		model.FormatTime(testNow),
	)
	if err != nil {
		t.Fatalf("inserting legacy row: %v", err)
	}

	entries, err := ListAuditForItem(context.Background(), database, "A1")
	if err != nil {
		t.Fatalf("ListAuditForItem: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Action != model.ActionCheckOut {
		t.Errorf("expected check_out, got %q", entries[0].Action)
	}
	d := entries[0].Details.(model.MovementDetails)
	if d.QuantityChange != 5 || d.NewQuantity != 15 || d.OldQuantity != 20 {
		t.Errorf("unexpected normalized details: %+v", d)
	}
}

func TestListAuditForItemFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"A1", "B2", "A1"} {
		AppendAudit(ctx, database, &model.Entry{Action: model.ActionCheckIn, ItemID: id, Details: model.MovementDetails{QuantityChange: 1}})
	}

	entries, err := ListAuditForItem(ctx, database, "A1")
	if err != nil {
		t.Fatalf("ListAuditForItem: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for A1, got %d", len(entries))
	}
}

func TestListAuditHeadIsLatestAppend(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first := &model.Entry{Action: model.ActionCheckIn, ItemID: "A1", Details: model.MovementDetails{QuantityChange: 1}, Timestamp: testNow}
	if _, err := AppendAudit(ctx, database, first); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}
	// A writer that read the clock earlier but appended later.
	late := &model.Entry{Action: model.ActionCheckOut, ItemID: "A1", Details: model.MovementDetails{QuantityChange: 1}, Timestamp: testNow.Add(-50 * time.Millisecond)}
	if _, err := AppendAudit(ctx, database, late); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}

	head, err := ListAudit(ctx, database, 1)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(head) != 1 || head[0].ID != late.ID {
		t.Errorf("expected latest append (id %d) at head, got %+v", late.ID, head)
	}

	forItem, err := ListAuditForItem(ctx, database, "A1")
	if err != nil {
		t.Fatalf("ListAuditForItem: %v", err)
	}
	if len(forItem) != 2 || forItem[0].ID != late.ID {
		t.Errorf("expected latest append first for item, got %+v", forItem)
	}
}
