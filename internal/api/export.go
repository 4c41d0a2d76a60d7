package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/erazemk/paintstock/internal/export"
	"github.com/erazemk/paintstock/internal/inventory"
	"github.com/erazemk/paintstock/internal/metrics"
	"github.com/erazemk/paintstock/internal/model"
)

// ExportHandler serves inventory downloads.
type ExportHandler struct {
	Service *inventory.Service
}

// CSV handles GET /api/export/csv. Admin only.
func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	if !model.ActorFromContext(r.Context()).IsAdmin() {
		jsonError(w, http.StatusForbidden, "only an admin can export the inventory")
		return
	}

	ok := false
	defer func() { metrics.RecordExport("http", ok) }()

	items, err := h.Service.ListItems(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	minQty, err := h.Service.MinQuantity(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}

	// Buffer so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, items, minQty); err != nil {
		serviceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(time.Now())))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
	ok = true
}

// Excel handles GET /api/export/excel, which this server does not produce.
func (h *ExportHandler) Excel(w http.ResponseWriter, r *http.Request) {
	jsonError(w, http.StatusNotImplemented, "spreadsheet export is not available; use /api/export/csv")
}
