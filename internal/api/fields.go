package api

import (
	"database/sql"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// readObject reads the request body and checks that it is a JSON object.
// An empty body is treated as {}.
func readObject(r *http.Request) (gjson.Result, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading body: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return gjson.Parse("{}"), nil
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("invalid JSON")
	}
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return gjson.Result{}, fmt.Errorf("body must be a JSON object")
	}
	return obj, nil
}

// stringField returns nil when key is absent or null.
func stringField(obj gjson.Result, key string) (*string, error) {
	v := obj.Get(key)
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.String:
		s := v.String()
		return &s, nil
	}
	return nil, fmt.Errorf("%s must be a string", key)
}

// intField accepts a whole JSON number or a numeric string, since form
// inputs often arrive as strings. It returns nil when key is absent or null.
func intField(obj gjson.Result, key string) (*int, error) {
	v := obj.Get(key)
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.Number:
		f := v.Float()
		if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return nil, fmt.Errorf("%s must be a whole number", key)
		}
		n := int(f)
		return &n, nil
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.String()))
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", key)
		}
		return &n, nil
	}
	return nil, fmt.Errorf("%s must be a whole number", key)
}

// nullableIntField distinguishes an absent key (nil) from an explicit null
// or empty string, which yields an invalid NullInt64 meaning "clear".
func nullableIntField(obj gjson.Result, key string) (*sql.NullInt64, error) {
	v := obj.Get(key)
	if !v.Exists() {
		return nil, nil
	}
	if v.Type == gjson.Null || (v.Type == gjson.String && strings.TrimSpace(v.String()) == "") {
		return &sql.NullInt64{}, nil
	}
	n, err := intField(obj, key)
	if err != nil {
		return nil, err
	}
	return &sql.NullInt64{Int64: int64(*n), Valid: true}, nil
}

// priceField works like nullableIntField for decimal amounts.
func priceField(obj gjson.Result, key string) (*decimal.NullDecimal, error) {
	v := obj.Get(key)
	if !v.Exists() {
		return nil, nil
	}
	var raw string
	switch v.Type {
	case gjson.Null:
		return &decimal.NullDecimal{}, nil
	case gjson.Number:
		raw = v.Raw
	case gjson.String:
		raw = strings.TrimSpace(v.String())
		if raw == "" {
			return &decimal.NullDecimal{}, nil
		}
	default:
		return nil, fmt.Errorf("%s must be a number", key)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
