package inventory

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/paintstock/internal/db"
	"github.com/erazemk/paintstock/internal/idcode"
	"github.com/erazemk/paintstock/internal/model"
)

func TestAllocateAutoSequence(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, want := range []string{"H66AAA00001", "H66AAA00002", "H66AAA00003"} {
		id, err := svc.AllocateAuto(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	cur, err := svc.NextCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), cur.Counter)
	assert.Equal(t, "H66AAA00004", cur.Formatted())
}

func TestConcurrentAllocateAutoYieldsDistinctIDs(t *testing.T) {
	svc := NewService(db.NewTestFileDB(t), discardLogger())

	const n = 25
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := svc.AllocateAuto(context.Background())
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	counters := make([]int, 0, n)
	seen := map[string]bool{}
	for _, id := range ids {
		require.False(t, seen[id], "id %s handed out twice", id)
		seen[id] = true
		c, ok := idcode.Decode(id)
		require.True(t, ok, "invalid id %q", id)
		counters = append(counters, int(c))
	}
	sort.Ints(counters)
	for i, c := range counters {
		assert.Equal(t, i+1, c, "ids must be consecutive")
	}

	cur, err := svc.NextCursor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), cur.Counter)
}

func TestConcurrentCreateWithAutoIDs(t *testing.T) {
	svc := NewService(db.NewTestFileDB(t), discardLogger())

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateItem(as(admin), NewItem{Name: "Flat Black", Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, n)
}

func TestAllocateAutoSkipsTakenCodes(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateItem(as(admin), NewItem{ID: "H66AAA00001", Name: "Taken"})
	require.NoError(t, err)

	id, err := svc.AllocateAuto(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "H66AAA00002", id)
}

func TestAllocateCustom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.AllocateCustom(ctx, "shelf b / can 4")
	require.NoError(t, err)
	assert.Equal(t, "shelf b / can 4", id, "custom ids are returned verbatim")

	_, err = svc.AllocateCustom(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateItem(as(admin), NewItem{ID: "X1", Name: "Taken"})
	require.NoError(t, err)
	_, err = svc.AllocateCustom(ctx, "X1")
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestSetNextCursorNumericAndCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cur, err := svc.SetNextCursor(as(admin), "100001")
	require.NoError(t, err)
	assert.Equal(t, "H66AAB00000", cur.Formatted())

	id, err := svc.AllocateAuto(ctx)
	require.NoError(t, err)
	assert.Equal(t, "H66AAB00000", id)

	_, err = svc.SetNextCursor(as(admin), "h66aaa00050")
	require.NoError(t, err)
	id, err = svc.AllocateAuto(ctx)
	require.NoError(t, err)
	assert.Equal(t, "H66AAA00050", id)

	entries, _ := svc.AuditLog(ctx, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionSetNextID, entries[0].Action)
	assert.Equal(t, "", entries[0].ItemID)
	assert.Equal(t, model.SetNextIDDetails{NextID: "50"}, entries[0].Details)
}

func TestSetNextCursorLiteralIsConsumedOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetNextCursor(as(admin), "7")
	require.NoError(t, err)

	cur, err := svc.SetNextCursor(as(admin), "SPECIAL-RED")
	require.NoError(t, err)
	assert.True(t, cur.IsLiteral())
	assert.Equal(t, "SPECIAL-RED", cur.Formatted())

	id, err := svc.AllocateAuto(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SPECIAL-RED", id)

	id, err = svc.AllocateAuto(ctx)
	require.NoError(t, err)
	assert.Equal(t, "H66AAA00008", id, "the counter advances by one after a literal")
}

func TestTakenLiteralFallsBackToCounter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(as(admin), NewItem{ID: "DUP", Name: "Existing"})
	require.NoError(t, err)
	_, err = svc.SetNextCursor(as(admin), "DUP")
	require.NoError(t, err)

	id, err := svc.AllocateAuto(ctx)
	require.NoError(t, err)
	assert.Equal(t, "H66AAA00001", id)
}

func TestSetNextCursorValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SetNextCursor(as(sam), "5")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.SetNextCursor(as(admin), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SetNextCursor(as(admin), "0")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SetNextCursor(as(admin), "-3")
	assert.ErrorIs(t, err, ErrInvalidInput)

	entries, _ := svc.AuditLog(context.Background(), 0)
	assert.Empty(t, entries)
}
