package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/paintstock/internal/analytics"
	"github.com/erazemk/paintstock/internal/inventory"
	"github.com/erazemk/paintstock/internal/model"
)

// AuditHandler serves the audit log and the figures derived from it.
type AuditHandler struct {
	Service *inventory.Service
	Options analytics.Options
	Now     func() time.Time
}

// List handles GET /api/audit?limit=N&q=text. Entries are newest first;
// q filters by item name, item id, user or action.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.Service.AuditLog(r.Context(), limit)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		items, err := h.Service.ListItems(r.Context())
		if err != nil {
			serviceError(w, r, err)
			return
		}
		entries = analytics.Search(entries, items, q)
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Summary handles GET /api/analytics/summary.
func (h *AuditHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.Service.ListItems(ctx)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	entries, err := h.Service.AuditLog(ctx, 0)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	minQty, err := h.Service.MinQuantity(ctx)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	opts := h.Options
	opts.MinQuantity = minQty
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	jsonResponse(w, http.StatusOK, analytics.Summarize(items, entries, now(), opts))
}
