package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Action identifies what an audit entry records.
type Action string

// Audit actions.
const (
	ActionAdd            Action = "add"
	ActionCheckIn        Action = "check_in"
	ActionCheckOut       Action = "check_out"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionChangeID       Action = "change_id"
	ActionSetNextID      Action = "set_next_id"
	ActionSetMinQuantity Action = "set_min_quantity"
)

// Entry is an immutable audit log record. Details always holds the payload
// type that belongs to Action; legacy encodings are converted by DecodeEntry
// before an Entry is ever built from stored data.
type Entry struct {
	ID        int64
	Action    Action
	ItemID    string // empty for global settings actions
	UserName  string
	Details   Details
	Timestamp time.Time
}

// Details is the action-specific payload of an Entry.
type Details interface {
	details()
}

// AddDetails is recorded when an item is created.
type AddDetails struct {
	Name        string `json:"name,omitempty"`
	Quantity    int    `json:"quantity"`
	NewQuantity int    `json:"newQuantity"`
}

// MovementDetails is recorded for check_in and check_out. QuantityChange is
// always the magnitude actually applied.
type MovementDetails struct {
	QuantityChange int `json:"quantityChange"`
	OldQuantity    int `json:"oldQuantity"`
	NewQuantity    int `json:"newQuantity"`

	// Legacy is set when the entry was stored as action "update" with a
	// _actionType discriminator.
	Legacy bool `json:"-"`
}

// UpdateDetails is recorded for manual edits. Changes holds the edited
// fields; the quantity fields are present only when quantity was touched.
type UpdateDetails struct {
	Changes        map[string]any
	QuantityChange *int
	OldQuantity    *int
	NewQuantity    *int
}

// DeleteDetails is recorded when an item is removed.
type DeleteDetails struct {
	Name        string `json:"name,omitempty"`
	OldQuantity int    `json:"oldQuantity"`
	NewQuantity int    `json:"newQuantity"`
}

// ChangeIDDetails is recorded when an item is renamed.
type ChangeIDDetails struct {
	OldID string `json:"oldId"`
	NewID string `json:"newId"`
}

// SetNextIDDetails is recorded when the next-id cursor is overridden.
type SetNextIDDetails struct {
	NextID string `json:"nextId"`
}

// SetMinQuantityDetails is recorded when the global threshold changes.
type SetMinQuantityDetails struct {
	MinQuantity int `json:"minQuantity"`
}

// RawDetails carries the payload of an action this build does not know.
type RawDetails json.RawMessage

func (AddDetails) details()            {}
func (MovementDetails) details()       {}
func (UpdateDetails) details()         {}
func (DeleteDetails) details()         {}
func (ChangeIDDetails) details()       {}
func (SetNextIDDetails) details()      {}
func (SetMinQuantityDetails) details() {}
func (RawDetails) details()            {}

// MarshalJSON flattens the edited fields next to the quantity fields.
func (d UpdateDetails) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Changes)+3)
	for k, v := range d.Changes {
		out[k] = v
	}
	if d.QuantityChange != nil {
		out["quantityChange"] = *d.QuantityChange
	}
	if d.OldQuantity != nil {
		out["oldQuantity"] = *d.OldQuantity
	}
	if d.NewQuantity != nil {
		out["newQuantity"] = *d.NewQuantity
	}
	return json.Marshal(out)
}

// MarshalJSON emits the raw payload unchanged.
func (d RawDetails) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("{}"), nil
	}
	return d, nil
}

// QuantityChange returns the magnitude moved by the entry, if it records one.
func (e Entry) QuantityChange() (int, bool) {
	switch d := e.Details.(type) {
	case MovementDetails:
		return d.QuantityChange, true
	case UpdateDetails:
		if d.QuantityChange != nil {
			return *d.QuantityChange, true
		}
	case AddDetails:
		return d.Quantity, true
	}
	return 0, false
}

// ResultingQuantity returns the item total right after the entry, if known.
func (e Entry) ResultingQuantity() (int, bool) {
	switch d := e.Details.(type) {
	case AddDetails:
		return d.NewQuantity, true
	case MovementDetails:
		return d.NewQuantity, true
	case UpdateDetails:
		if d.NewQuantity != nil {
			return *d.NewQuantity, true
		}
	case DeleteDetails:
		return d.NewQuantity, true
	}
	return 0, false
}

// IsMovement reports whether the entry is a check-in or check-out.
func (e Entry) IsMovement() bool {
	return e.Action == ActionCheckIn || e.Action == ActionCheckOut
}

type entryJSON struct {
	ID        int64           `json:"id"`
	Action    Action          `json:"action"`
	ItemID    *string         `json:"itemId"`
	UserName  string          `json:"userName"`
	Details   json.RawMessage `json:"details"`
	Timestamp string          `json:"timestamp"`
}

// MarshalJSON encodes the entry in its wire form.
func (e Entry) MarshalJSON() ([]byte, error) {
	details, err := MarshalDetails(e.Details)
	if err != nil {
		return nil, err
	}
	out := entryJSON{
		ID:        e.ID,
		Action:    e.Action,
		UserName:  e.UserName,
		Details:   details,
		Timestamp: FormatTime(e.Timestamp),
	}
	if e.ItemID != "" {
		out.ItemID = &e.ItemID
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire form, normalizing legacy encodings.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	action, details, err := DecodeEntry(string(in.Action), in.Details)
	if err != nil {
		return err
	}
	ts, err := ParseTime(in.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	*e = Entry{
		ID:        in.ID,
		Action:    action,
		UserName:  in.UserName,
		Details:   details,
		Timestamp: ts,
	}
	if in.ItemID != nil {
		e.ItemID = *in.ItemID
	}
	return nil
}

// MarshalDetails encodes a payload for storage. A nil payload encodes as {}.
func MarshalDetails(d Details) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// DecodeEntry turns a stored (action, details) pair into its canonical form.
// An "update" whose payload carries _actionType check_in or check_out is
// returned as that action with MovementDetails.
func DecodeEntry(action string, raw []byte) (Action, Details, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if !gjson.ValidBytes(raw) {
		return "", nil, fmt.Errorf("invalid details payload for action %q", action)
	}

	a := Action(action)
	if a == ActionUpdate {
		switch legacy := Action(gjson.GetBytes(raw, "_actionType").String()); legacy {
		case ActionCheckIn, ActionCheckOut:
			return legacy, decodeLegacyMovement(legacy, raw), nil
		}
	}

	switch a {
	case ActionAdd:
		var d AddDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return "", nil, fmt.Errorf("decoding add details: %w", err)
		}
		if !gjson.GetBytes(raw, "newQuantity").Exists() {
			d.NewQuantity = d.Quantity
		}
		return a, d, nil
	case ActionCheckIn, ActionCheckOut:
		var d MovementDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return "", nil, fmt.Errorf("decoding %s details: %w", a, err)
		}
		if d.QuantityChange < 0 {
			d.QuantityChange = -d.QuantityChange
		}
		return a, d, nil
	case ActionUpdate:
		d, err := decodeUpdate(raw)
		if err != nil {
			return "", nil, err
		}
		return a, d, nil
	case ActionDelete:
		var d DeleteDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return "", nil, fmt.Errorf("decoding delete details: %w", err)
		}
		return a, d, nil
	case ActionChangeID:
		var d ChangeIDDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return "", nil, fmt.Errorf("decoding change_id details: %w", err)
		}
		return a, d, nil
	case ActionSetNextID:
		// Older clients stored the counter as a JSON number.
		return a, SetNextIDDetails{NextID: gjson.GetBytes(raw, "nextId").String()}, nil
	case ActionSetMinQuantity:
		return a, SetMinQuantityDetails{MinQuantity: int(gjson.GetBytes(raw, "minQuantity").Int())}, nil
	default:
		return a, RawDetails(append([]byte(nil), raw...)), nil
	}
}

func decodeLegacyMovement(a Action, raw []byte) MovementDetails {
	change := gjson.GetBytes(raw, "quantityChange")
	if !change.Exists() {
		change = gjson.GetBytes(raw, "_quantityChange")
	}
	newQty := gjson.GetBytes(raw, "newQuantity")
	if !newQty.Exists() {
		// The legacy "quantity" field held the resulting total.
		newQty = gjson.GetBytes(raw, "quantity")
	}

	d := MovementDetails{
		QuantityChange: absInt(int(change.Int())),
		NewQuantity:    int(newQty.Int()),
		Legacy:         true,
	}
	if old := gjson.GetBytes(raw, "oldQuantity"); old.Exists() {
		d.OldQuantity = int(old.Int())
	} else if a == ActionCheckIn {
		d.OldQuantity = d.NewQuantity - d.QuantityChange
	} else {
		d.OldQuantity = d.NewQuantity + d.QuantityChange
	}
	return d
}

func decodeUpdate(raw []byte) (UpdateDetails, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return UpdateDetails{}, fmt.Errorf("decoding update details: %w", err)
	}

	d := UpdateDetails{Changes: make(map[string]any, len(fields))}
	take := func(key string) *int {
		v, ok := fields[key]
		if !ok {
			return nil
		}
		delete(fields, key)
		n, ok := v.(float64)
		if !ok {
			return nil
		}
		i := int(n)
		return &i
	}
	d.QuantityChange = take("quantityChange")
	d.OldQuantity = take("oldQuantity")
	d.NewQuantity = take("newQuantity")
	if d.QuantityChange != nil && *d.QuantityChange < 0 {
		abs := -*d.QuantityChange
		d.QuantityChange = &abs
	}
	for k, v := range fields {
		d.Changes[k] = v
	}
	return d, nil
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
