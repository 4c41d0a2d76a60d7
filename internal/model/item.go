package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, the way clients already send them.
	decimal.MarshalJSONWithoutQuotes = true
}

// Item represents a paint or coating container record. Quantity is in gallons.
type Item struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Quantity      int                 `json:"quantity"`
	MinQuantity   *int                `json:"minQuantity,omitempty"`
	Price         decimal.NullDecimal `json:"price"`
	Type          string              `json:"type,omitempty"`
	Location      string              `json:"location"`
	Description   string              `json:"description"`
	LastScanned   *time.Time          `json:"lastScanned"`
	LastScannedBy string              `json:"lastScannedBy"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Item types.
const (
	ItemTypePaint  = "paint"
	ItemTypePrimer = "primer"
	ItemTypeClear  = "clear"
	ItemTypeStain  = "stain"
	ItemTypeDye    = "dye"
)

// ValidItemType reports whether t is one of the known item types. The empty
// string is valid and means "unspecified".
func ValidItemType(t string) bool {
	switch t {
	case "", ItemTypePaint, ItemTypePrimer, ItemTypeClear, ItemTypeStain, ItemTypeDye:
		return true
	}
	return false
}

// Threshold returns the low-stock threshold for the item: its own minimum if
// set, otherwise the global default.
func (i Item) Threshold(globalDefault int) int {
	if i.MinQuantity != nil {
		return *i.MinQuantity
	}
	return globalDefault
}
