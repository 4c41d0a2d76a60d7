package api

import (
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/erazemk/paintstock/internal/inventory"
)

// SettingsHandler handles the global settings endpoints.
type SettingsHandler struct {
	Service *inventory.Service
}

type nextIDResponse struct {
	Success         bool   `json:"success,omitempty"`
	NextID          any    `json:"nextId"`
	NextIDFormatted string `json:"nextIdFormatted"`
}

func cursorResponse(c inventory.Cursor) nextIDResponse {
	resp := nextIDResponse{NextIDFormatted: c.Formatted()}
	if c.IsLiteral() {
		resp.NextID = c.Literal
	} else {
		resp.NextID = c.Counter
	}
	return resp
}

// GetNextID handles GET /api/settings/next-id. nextId is a number for a
// counter cursor and the literal string otherwise.
func (h *SettingsHandler) GetNextID(w http.ResponseWriter, r *http.Request) {
	cursor, err := h.Service.NextCursor(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, cursorResponse(cursor))
}

// SetNextID handles POST /api/settings/next-id.
func (h *SettingsHandler) SetNextID(w http.ResponseWriter, r *http.Request) {
	obj, err := readObject(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var value string
	switch v := obj.Get("nextId"); v.Type {
	case gjson.Number:
		n, err := intField(obj, "nextId")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		value = strconv.Itoa(*n)
	case gjson.String:
		value = v.String()
	default:
		jsonError(w, http.StatusBadRequest, "nextId required")
		return
	}

	cursor, err := h.Service.SetNextCursor(r.Context(), value)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	resp := cursorResponse(cursor)
	resp.Success = true
	jsonResponse(w, http.StatusOK, resp)
}

// GetMinQuantity handles GET /api/settings/min-quantity.
func (h *SettingsHandler) GetMinQuantity(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.MinQuantity(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"minQuantity": n})
}

// SetMinQuantity handles POST /api/settings/min-quantity.
func (h *SettingsHandler) SetMinQuantity(w http.ResponseWriter, r *http.Request) {
	obj, err := readObject(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := intField(obj, "minQuantity")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if n == nil {
		jsonError(w, http.StatusBadRequest, "minQuantity required")
		return
	}

	if err := h.Service.SetMinQuantity(r.Context(), *n); err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "minQuantity": *n})
}
