package analytics

import (
	"strings"
	"time"

	"github.com/erazemk/paintstock/internal/model"
)

// Week returns the Sunday-to-Saturday week containing now, in now's
// location.
func Week(now time.Time) Range {
	y, m, d := now.Date()
	start := time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return Range{Start: start, End: end}
}

// Month returns the calendar month containing now, in now's location.
func Month(now time.Time) Range {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Range{Start: start, End: end}
}

// VisibleEntries filters the log for a role. Admins see everything; other
// users see stock movements and deletions only.
func VisibleEntries(entries []model.Entry, role string) []model.Entry {
	if role == model.RoleAdmin {
		return append([]model.Entry(nil), entries...)
	}
	out := []model.Entry{}
	for _, e := range entries {
		if e.IsMovement() || e.Action == model.ActionDelete {
			out = append(out, e)
		}
	}
	return out
}

// DisplayUserName returns the name to show for an entry. Entries written
// without a usable name by admin-only actions are attributed to the admin.
func DisplayUserName(e model.Entry) string {
	name := strings.TrimSpace(e.UserName)
	if name != "" && !strings.EqualFold(name, model.Anonymous.Name) {
		return e.UserName
	}
	switch e.Action {
	case model.ActionAdd, model.ActionChangeID, model.ActionSetNextID,
		model.ActionSetMinQuantity, model.ActionDelete, model.ActionUpdate:
		return model.AdminDisplayName
	}
	if name == "" {
		return "Unknown"
	}
	return e.UserName
}

// Search returns entries whose item name, item id, user or action contains
// query, ignoring case. An empty query returns every entry.
func Search(entries []model.Entry, items []model.Item, query string) []model.Entry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]model.Entry(nil), entries...)
	}

	names := make(map[string]string, len(items))
	for _, it := range items {
		names[it.ID] = strings.ToLower(it.Name)
	}

	out := []model.Entry{}
	for _, e := range entries {
		if strings.Contains(names[e.ItemID], query) ||
			strings.Contains(strings.ToLower(e.ItemID), query) ||
			strings.Contains(strings.ToLower(e.UserName), query) ||
			strings.Contains(strings.ToLower(string(e.Action)), query) {
			out = append(out, e)
		}
	}
	return out
}
