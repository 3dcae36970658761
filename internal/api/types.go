package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Wire helpers. Backend payloads are loosely typed: ids may be numbers or
// strings, amounts may arrive as numeric strings, and related records may be
// embedded objects or bare ids. These types absorb that variance so a single
// malformed field never fails a whole response.

// flexString accepts a JSON string, number, or bool.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		*s = ""
		return nil
	}
	*s = flexString(data)
	return nil
}

// flexFloat accepts a JSON number or numeric string. Anything else, including
// NaN and infinities, is 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "$")))
	}
	parsed, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		*f = 0
		return nil
	}
	*f = flexFloat(parsed)
	return nil
}

// flexBool accepts a JSON bool, "true"/"false" string, or 0/1 number.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseBool(strings.Trim(string(bytes.TrimSpace(data)), `"`))
	*b = flexBool(err == nil && v)
	return nil
}

// flexStrings accepts an array of strings; any other shape yields an empty slice.
type flexStrings []string

func (s *flexStrings) UnmarshalJSON(data []byte) error {
	var items []flexString
	if err := json.Unmarshal(data, &items); err != nil {
		*s = flexStrings{}
		return nil
	}
	out := make(flexStrings, 0, len(items))
	for _, item := range items {
		if item != "" {
			out = append(out, string(item))
		}
	}
	*s = out
	return nil
}

func (s flexStrings) slice() []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}

// ref is a related record that may be embedded as an object or given as an id.
type ref struct {
	ID   string
	Name string
}

func (r *ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		var id flexString
		_ = id.UnmarshalJSON(data)
		*r = ref{ID: string(id)}
		return nil
	}
	var obj struct {
		ID        flexString `json:"id"`
		MongoID   flexString `json:"_id"`
		Name      flexString `json:"name"`
		Title     flexString `json:"title"`
		FirstName flexString `json:"firstName"`
		LastName  flexString `json:"lastName"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		*r = ref{}
		return nil
	}
	full := strings.TrimSpace(string(obj.FirstName) + " " + string(obj.LastName))
	*r = ref{
		ID:   firstNonEmpty(string(obj.ID), string(obj.MongoID)),
		Name: firstNonEmpty(string(obj.Name), string(obj.Title), full),
	}
	return nil
}

// identity is embedded by raw records to accept both "id" and "_id".
type identity struct {
	ID      flexString `json:"id"`
	MongoID flexString `json:"_id"`
}

func (i identity) id() string {
	return firstNonEmpty(string(i.ID), string(i.MongoID))
}

func orDefault(v flexString, def string) string {
	if s := strings.TrimSpace(string(v)); s != "" {
		return s
	}
	return def
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// rawList is a nested array that tolerates non-array values and malformed elements.
type rawList[R any] []R

func (l *rawList[R]) UnmarshalJSON(data []byte) error {
	*l = decodeList[R](context.Background(), data)
	return nil
}
