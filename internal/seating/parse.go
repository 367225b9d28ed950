package seating

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ParseTables decodes a persisted table collection.  Empty input and JSON
// null decode to an empty collection.  Tables without an id get a fresh
// one; a table with an unknown shape or a non-positive capacity or number
// makes the whole collection invalid.
func ParseTables(data []byte) ([]Table, error) {
	tables := []Table{}
	if isBlank(data) {
		return tables, nil
	}
	if err := json.Unmarshal(data, &tables); err != nil {
		return []Table{}, fmt.Errorf("decode tables: %w", err)
	}
	if tables == nil {
		tables = []Table{}
	}
	for i := range tables {
		t := &tables[i]
		if !t.Shape.Valid() {
			return []Table{}, fmt.Errorf("table %d: unknown shape %q", i, t.Shape)
		}
		if t.Capacity < 1 || t.Number < 1 {
			return []Table{}, fmt.Errorf("table %d: number and seats must be positive", i)
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
	}
	return tables, nil
}

// ParseSeating decodes a persisted seat map.  Seat numbers are normalised
// to their 1-based position so null holes become free seats.
func ParseSeating(data []byte) (Seating, error) {
	seating := Seating{}
	if isBlank(data) {
		return seating, nil
	}
	if err := json.Unmarshal(data, &seating); err != nil {
		return Seating{}, fmt.Errorf("decode seating: %w", err)
	}
	if seating == nil {
		seating = Seating{}
	}
	for n, bucket := range seating {
		for i := range bucket {
			bucket[i].Number = i + 1
		}
		seating[n] = bucket
	}
	return seating, nil
}

func isBlank(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

var errNotInteger = errors.New("not an integer")

// CoerceInt reads an integer out of a JSON value the way a form field is
// read: numbers are truncated toward zero and strings contribute their
// leading integer ("12abc" is 12).  Anything else is an error.
func CoerceInt(raw json.RawMessage) (int, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, errNotInteger
		}
		return int(math.Trunc(t)), nil
	case string:
		return leadingInt(t)
	default:
		return 0, fmt.Errorf("%w: %s", errNotInteger, string(raw))
	}
}

func leadingInt(s string) (int, error) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("%w: %q", errNotInteger, s)
	}
	return strconv.Atoi(s[:end])
}

// coerceFloat reads a JSON number or numeric string.
func coerceFloat(raw json.RawMessage) (float64, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("not a number: %s", string(raw))
	}
}
