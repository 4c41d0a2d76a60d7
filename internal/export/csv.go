// Package export writes inventory snapshots as CSV, on demand and on a
// daily schedule.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/erazemk/paintstock/internal/model"
)

var header = []string{
	"ID", "Name", "Type", "Quantity (gal)", "Min Quantity", "Status",
	"Price", "Location", "Description", "Last Scanned", "Last Scanned By",
}

// Stock statuses written to the Status column.
const (
	StatusOut = "Out of stock"
	StatusLow = "Low"
	StatusOK  = "OK"
)

// Status classifies an item against its low-stock threshold.
func Status(item model.Item, globalMin int) string {
	switch {
	case item.Quantity == 0:
		return StatusOut
	case item.Quantity < item.Threshold(globalMin):
		return StatusLow
	}
	return StatusOK
}

// FileName returns the snapshot file name for the given day.
func FileName(t time.Time) string {
	return fmt.Sprintf("paint-inventory-%s.csv", t.Format("2006-01-02"))
}

// WriteCSV writes one row per item after a header row. globalMin is used
// for items without their own minimum.
func WriteCSV(w io.Writer, items []model.Item, globalMin int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, item := range items {
		price := ""
		if item.Price.Valid {
			price = item.Price.Decimal.StringFixed(2)
		}
		scanned := ""
		if item.LastScanned != nil {
			scanned = model.FormatTime(*item.LastScanned)
		}
		row := []string{
			item.ID,
			item.Name,
			item.Type,
			strconv.Itoa(item.Quantity),
			strconv.Itoa(item.Threshold(globalMin)),
			Status(item, globalMin),
			price,
			item.Location,
			item.Description,
			scanned,
			item.LastScannedBy,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", item.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
