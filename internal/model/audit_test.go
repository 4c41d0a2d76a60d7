package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntryModernMovement(t *testing.T) {
	action, details, err := DecodeEntry("check_out", []byte(`{"quantityChange":5,"oldQuantity":20,"newQuantity":15}`))
	require.NoError(t, err)
	assert.Equal(t, ActionCheckOut, action)
	assert.Equal(t, MovementDetails{QuantityChange: 5, OldQuantity: 20, NewQuantity: 15}, details)
}

func TestDecodeEntryLegacyMovement(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		action Action
		want   MovementDetails
	}{
		{
			name:   "legacy check_in with quantity total",
			raw:    `{"quantity":12,"_actionType":"check_in","_quantityChange":2}`,
			action: ActionCheckIn,
			want:   MovementDetails{QuantityChange: 2, OldQuantity: 10, NewQuantity: 12, Legacy: true},
		},
		{
			name:   "legacy check_out with negative change",
			raw:    `{"quantity":15,"_actionType":"check_out","_quantityChange":-5}`,
			action: ActionCheckOut,
			want:   MovementDetails{QuantityChange: 5, OldQuantity: 20, NewQuantity: 15, Legacy: true},
		},
		{
			name:   "legacy with explicit modern fields",
			raw:    `{"_actionType":"check_out","quantityChange":3,"oldQuantity":9,"newQuantity":6}`,
			action: ActionCheckOut,
			want:   MovementDetails{QuantityChange: 3, OldQuantity: 9, NewQuantity: 6, Legacy: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, details, err := DecodeEntry("update", []byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.action, action)
			assert.Equal(t, tt.want, details)
		})
	}
}

func TestDecodeEntryPlainUpdate(t *testing.T) {
	action, details, err := DecodeEntry("update", []byte(`{"name":"Satin Black","quantityChange":-4,"oldQuantity":10,"newQuantity":6}`))
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, action)

	d, ok := details.(UpdateDetails)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Satin Black"}, d.Changes)
	require.NotNil(t, d.QuantityChange)
	assert.Equal(t, 4, *d.QuantityChange)
	assert.Equal(t, 6, *d.NewQuantity)
}

func TestDecodeEntryUnknownActionKeepsPayload(t *testing.T) {
	action, details, err := DecodeEntry("recount", []byte(`{"note":"yearly"}`))
	require.NoError(t, err)
	assert.Equal(t, Action("recount"), action)
	assert.JSONEq(t, `{"note":"yearly"}`, string(details.(RawDetails)))
}

func TestDecodeEntryRejectsInvalidJSON(t *testing.T) {
	_, _, err := DecodeEntry("add", []byte(`{not json`))
	assert.Error(t, err)
}

func TestDecodeEntrySetNextIDAcceptsNumber(t *testing.T) {
	_, details, err := DecodeEntry("set_next_id", []byte(`{"nextId":42}`))
	require.NoError(t, err)
	assert.Equal(t, SetNextIDDetails{NextID: "42"}, details)
}

func TestEntryJSONRoundTrip(t *testing.T) {
	ts := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	e := Entry{
		ID:        7,
		Action:    ActionCheckIn,
		ItemID:    "H66AAA00003",
		UserName:  "Sam",
		Details:   MovementDetails{QuantityChange: 2, OldQuantity: 1, NewQuantity: 3},
		Timestamp: ts,
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 7,
		"action": "check_in",
		"itemId": "H66AAA00003",
		"userName": "Sam",
		"details": {"quantityChange": 2, "oldQuantity": 1, "newQuantity": 3},
		"timestamp": "2024-06-01T08:30:00.000Z"
	}`, string(data))

	var back Entry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, e.Action, back.Action)
	assert.Equal(t, e.Details, back.Details)
	assert.True(t, back.Timestamp.Equal(ts))
}

func TestEntryJSONNullItemID(t *testing.T) {
	data, err := json.Marshal(Entry{Action: ActionSetNextID, Details: SetNextIDDetails{NextID: "5"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"itemId":null`)
}

func TestUpdateDetailsFlattens(t *testing.T) {
	change, oldQty, newQty := 3, 5, 8
	data, err := json.Marshal(UpdateDetails{
		Changes:        map[string]any{"location": "Bay 2"},
		QuantityChange: &change,
		OldQuantity:    &oldQty,
		NewQuantity:    &newQty,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"location":"Bay 2","quantityChange":3,"oldQuantity":5,"newQuantity":8}`, string(data))
}

func TestEntryQuantityHelpers(t *testing.T) {
	e := Entry{Action: ActionDelete, Details: DeleteDetails{OldQuantity: 9}}
	_, ok := e.QuantityChange()
	assert.False(t, ok)
	q, ok := e.ResultingQuantity()
	assert.True(t, ok)
	assert.Equal(t, 0, q)

	e = Entry{Action: ActionCheckIn, Details: MovementDetails{QuantityChange: 4, NewQuantity: 10}}
	assert.True(t, e.IsMovement())
	c, _ := e.QuantityChange()
	assert.Equal(t, 4, c)
}
