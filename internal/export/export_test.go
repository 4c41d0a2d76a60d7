package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/paintstock/internal/model"
)

func intPtr(n int) *int { return &n }

func sampleItems() []model.Item {
	scanned := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	return []model.Item{
		{
			ID:            "H66AAA00001",
			Name:          "Safety Yellow",
			Type:          model.ItemTypePaint,
			Quantity:      12,
			Price:         decimal.NewNullDecimal(decimal.RequireFromString("45.5")),
			Location:      "Shelf A",
			Description:   "Enamel, \"quick dry\"",
			LastScanned:   &scanned,
			LastScannedBy: "Dana",
		},
		{ID: "H66AAA00002", Name: "Gray Primer", Quantity: 0},
		{ID: "H66AAA00003", Name: "Clear Coat", Quantity: 40, MinQuantity: intPtr(10)},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleItems(), 30))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{
		"H66AAA00001", "Safety Yellow", "paint", "12", "30", StatusLow,
		"45.50", "Shelf A", "Enamel, \"quick dry\"", "2024-03-04T09:30:00.000Z", "Dana",
	}, rows[1])
	assert.Equal(t, StatusOut, rows[2][5])
	assert.Equal(t, "", rows[2][6], "missing price is blank")
	assert.Equal(t, "10", rows[3][4], "item minimum overrides the global one")
	assert.Equal(t, StatusOK, rows[3][5])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, 30))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "paint-inventory-2024-12-31.csv", FileName(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)))
}

type fakeSource struct {
	items []model.Item
	err   error
}

func (f fakeSource) ListItems(context.Context) ([]model.Item, error) { return f.items, f.err }
func (f fakeSource) MinQuantity(context.Context) (int, error)        { return 30, nil }

func TestSchedulerRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	s, err := NewScheduler(fakeSource{items: sampleItems()}, dir, "0 7 * * *", nil)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC) }

	path, err := s.Run(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "paint-inventory-2024-05-06.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestSchedulerRunSourceError(t *testing.T) {
	dir := t.TempDir()
	s, err := NewScheduler(fakeSource{err: errors.New("db gone")}, dir, "@daily", nil)
	require.NoError(t, err)

	_, err = s.Run(context.Background(), "manual")
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(fakeSource{}, t.TempDir(), "every morning", nil)
	assert.Error(t, err)
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := NewScheduler(fakeSource{}, t.TempDir(), "0 7 * * *", nil)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
