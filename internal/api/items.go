package api

import (
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/erazemk/paintstock/internal/analytics"
	"github.com/erazemk/paintstock/internal/inventory"
	"github.com/erazemk/paintstock/internal/model"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Service *inventory.Service
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListItems(r.Context())
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items. Without an id one is allocated.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	obj, err := readObject(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var in inventory.NewItem
	if err := decodeNewItem(obj, &in); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.Service.CreateItem(r.Context(), in)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]any{"success": true, "item": item})
}

// Update handles PUT /api/items/{id}. Absent fields are left alone; null
// clears minQuantity and price. The _actionType and _quantityChange hints
// turn the call into a check-in or check-out.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	obj, err := readObject(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var upd inventory.ItemUpdate
	if err := decodeItemUpdate(obj, &upd); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.Service.UpdateItem(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

// ChangeID handles POST /api/items/{id}/change-id.
func (h *ItemsHandler) ChangeID(w http.ResponseWriter, r *http.Request) {
	obj, err := readObject(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	newID, err := stringField(obj, "newId")
	if err != nil || newID == nil {
		jsonError(w, http.StatusBadRequest, "newId required")
		return
	}

	item, err := h.Service.RenameItem(r.Context(), r.PathValue("id"), *newID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "itemId": item.ID})
}

// History handles GET /api/items/{id}/history. Entries are returned even
// when the item has since been deleted.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.ItemHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// LastAction handles GET /api/items/{id}/last-action.
func (h *ItemsHandler) LastAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := h.Service.ItemHistory(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	last := analytics.LastActionForItem(entries, id)
	if last == nil {
		jsonError(w, http.StatusNotFound, "no recorded actions for "+id)
		return
	}
	jsonResponse(w, http.StatusOK, last)
}

func decodeNewItem(obj gjson.Result, in *inventory.NewItem) error {
	id, err := stringField(obj, "id")
	if err != nil {
		return err
	}
	if id != nil {
		in.ID = *id
	}
	if err := setString(obj, "name", &in.Name); err != nil {
		return err
	}
	if err := setString(obj, "type", &in.Type); err != nil {
		return err
	}
	if err := setString(obj, "location", &in.Location); err != nil {
		return err
	}
	if err := setString(obj, "description", &in.Description); err != nil {
		return err
	}

	qty, err := intField(obj, "quantity")
	if err != nil {
		return err
	}
	if qty != nil {
		in.Quantity = *qty
	}

	minQty, err := nullableIntField(obj, "minQuantity")
	if err != nil {
		return err
	}
	if minQty != nil && minQty.Valid {
		n := int(minQty.Int64)
		in.MinQuantity = &n
	}

	price, err := priceField(obj, "price")
	if err != nil {
		return err
	}
	if price != nil {
		in.Price = *price
	}
	return nil
}

func decodeItemUpdate(obj gjson.Result, upd *inventory.ItemUpdate) error {
	var err error
	if upd.Name, err = stringField(obj, "name"); err != nil {
		return err
	}
	if upd.Type, err = stringField(obj, "type"); err != nil {
		return err
	}
	if upd.Location, err = stringField(obj, "location"); err != nil {
		return err
	}
	if upd.Description, err = stringField(obj, "description"); err != nil {
		return err
	}
	if upd.Quantity, err = intField(obj, "quantity"); err != nil {
		return err
	}
	if upd.MinQuantity, err = nullableIntField(obj, "minQuantity"); err != nil {
		return err
	}
	if upd.Price, err = priceField(obj, "price"); err != nil {
		return err
	}

	action, err := stringField(obj, "_actionType")
	if err != nil {
		return err
	}
	if action != nil {
		upd.Action = model.Action(*action)
	}
	if upd.QuantityChange, err = intField(obj, "_quantityChange"); err != nil {
		return err
	}
	return nil
}

func setString(obj gjson.Result, key string, dst *string) error {
	s, err := stringField(obj, key)
	if err != nil {
		return err
	}
	if s != nil {
		*dst = *s
	}
	return nil
}
