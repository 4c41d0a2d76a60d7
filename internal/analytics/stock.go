package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/paintstock/internal/model"
)

// UnspecifiedLocation groups items with no location.
const UnspecifiedLocation = "Unspecified"

// LocationCount is the number of items stored at a location.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// StaleItems returns items never scanned or last scanned before
// now minus cutoffDays.
func StaleItems(items []model.Item, now time.Time, cutoffDays int) []model.Item {
	cutoff := now.Add(-time.Duration(cutoffDays) * 24 * time.Hour)
	out := []model.Item{}
	for _, it := range items {
		if it.LastScanned == nil || it.LastScanned.Before(cutoff) {
			out = append(out, it)
		}
	}
	return out
}

// LowStock returns items whose quantity is below their own minimum or,
// when unset, below globalDefault.
func LowStock(items []model.Item, globalDefault int) []model.Item {
	out := []model.Item{}
	for _, it := range items {
		if it.Quantity < it.Threshold(globalDefault) {
			out = append(out, it)
		}
	}
	return out
}

// InStock returns the items that are not low on stock.
func InStock(items []model.Item, globalDefault int) []model.Item {
	out := []model.Item{}
	for _, it := range items {
		if it.Quantity >= it.Threshold(globalDefault) {
			out = append(out, it)
		}
	}
	return out
}

// OutOfStock returns items with nothing left.
func OutOfStock(items []model.Item) []model.Item {
	out := []model.Item{}
	for _, it := range items {
		if it.Quantity == 0 {
			out = append(out, it)
		}
	}
	return out
}

// TotalGallons sums the quantity of all items.
func TotalGallons(items []model.Item) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// TotalValue sums quantity times price. Items without a price count as zero.
func TotalValue(items []model.Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if !it.Price.Valid {
			continue
		}
		total = total.Add(it.Price.Decimal.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// TopLocations returns up to n locations with the most items, largest
// first. Equal counts are ordered by location name.
func TopLocations(items []model.Item, n int) []LocationCount {
	counts := map[string]int{}
	for _, it := range items {
		loc := it.Location
		if loc == "" {
			loc = UnspecifiedLocation
		}
		counts[loc]++
	}

	out := make([]LocationCount, 0, len(counts))
	for loc, c := range counts {
		out = append(out, LocationCount{Location: loc, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Location < out[j].Location
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RecentlyScanned returns items scanned after now minus days.
func RecentlyScanned(items []model.Item, now time.Time, days int) []model.Item {
	since := now.Add(-time.Duration(days) * 24 * time.Hour)
	out := []model.Item{}
	for _, it := range items {
		if it.LastScanned != nil && it.LastScanned.After(since) {
			out = append(out, it)
		}
	}
	return out
}

// CountByType counts items per type. Items without a type are not counted.
func CountByType(items []model.Item) map[string]int {
	out := map[string]int{}
	for _, it := range items {
		if it.Type != "" {
			out[it.Type]++
		}
	}
	return out
}
