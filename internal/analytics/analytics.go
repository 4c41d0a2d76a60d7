// Package analytics derives dashboard figures from the current items and
// the audit log. Every function is pure: it reads its arguments, never
// modifies them, and returns the same result for the same input.
//
// Entries are expected in canonical form (see model.DecodeEntry), so legacy
// check-in and check-out rows already carry their real action.
package analytics

import (
	"time"

	"github.com/erazemk/paintstock/internal/model"
)

// ItemTotal is the quantity moved for one item.
type ItemTotal struct {
	ItemID        string `json:"itemId"`
	TotalQuantity int    `json:"totalQuantity"`
}

// Range is an inclusive time interval.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// GallonsMoved sums the quantity moved by entries of the given direction
// (check_in or check_out) whose timestamp lies in r.
func GallonsMoved(entries []model.Entry, direction model.Action, r Range) int {
	total := 0
	for _, e := range entries {
		if e.Action != direction || !r.Contains(e.Timestamp) {
			continue
		}
		if n, ok := e.QuantityChange(); ok {
			total += n
		}
	}
	return total
}

// MostActiveItem returns the item with the largest quantity moved in the
// given direction within r, or nil if nothing moved. On a tie the item seen
// first while iterating entries wins; callers should not rely on which.
func MostActiveItem(entries []model.Entry, direction model.Action, r Range) *ItemTotal {
	totals := map[string]int{}
	var order []string
	for _, e := range entries {
		if e.Action != direction || e.ItemID == "" || !r.Contains(e.Timestamp) {
			continue
		}
		n, ok := e.QuantityChange()
		if !ok {
			continue
		}
		if _, seen := totals[e.ItemID]; !seen {
			order = append(order, e.ItemID)
		}
		totals[e.ItemID] += n
	}

	var best *ItemTotal
	for _, id := range order {
		if best == nil || totals[id] > best.TotalQuantity {
			best = &ItemTotal{ItemID: id, TotalQuantity: totals[id]}
		}
	}
	return best
}

// LastActionForItem returns the most recent entry for itemID, by timestamp
// and then by sequence id, or nil if there is none.
func LastActionForItem(entries []model.Entry, itemID string) *model.Entry {
	var last *model.Entry
	for i := range entries {
		e := &entries[i]
		if e.ItemID != itemID {
			continue
		}
		if last == nil || e.Timestamp.After(last.Timestamp) ||
			e.Timestamp.Equal(last.Timestamp) && e.ID > last.ID {
			last = e
		}
	}
	if last == nil {
		return nil
	}
	found := *last
	return &found
}

// QuantityAt reconstructs an item's quantity at time t from the newest
// entry at or before t that records a resulting quantity. It reports false
// if no such entry exists.
func QuantityAt(entries []model.Entry, itemID string, t time.Time) (int, bool) {
	var (
		best  *model.Entry
		value int
	)
	for i := range entries {
		e := &entries[i]
		if e.ItemID != itemID || e.Timestamp.After(t) {
			continue
		}
		q, ok := e.ResultingQuantity()
		if !ok {
			continue
		}
		if best == nil || e.Timestamp.After(best.Timestamp) ||
			e.Timestamp.Equal(best.Timestamp) && e.ID > best.ID {
			best, value = e, q
		}
	}
	return value, best != nil
}
