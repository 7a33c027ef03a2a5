package bubble

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Well-known envelope fields present on every Bubble record.
const (
	fieldID       = "_id"
	fieldCreated  = "Created Date"
	fieldModified = "Modified Date"
)

// Record is one row from a Data API table. Bubble returns flat JSON
// objects whose field names are application-defined, so everything
// beyond the envelope fields lives in Fields.
type Record struct {
	ID           string
	CreatedDate  time.Time
	ModifiedDate time.Time
	Fields       map[string]interface{}
}

// UnmarshalJSON splits the envelope fields from application fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if id, ok := raw[fieldID].(string); ok {
		r.ID = id
	}
	r.CreatedDate = parseBubbleTime(raw[fieldCreated])
	r.ModifiedDate = parseBubbleTime(raw[fieldModified])

	delete(raw, fieldID)
	delete(raw, fieldCreated)
	delete(raw, fieldModified)
	r.Fields = raw
	return nil
}

// parseBubbleTime parses Bubble's RFC3339 timestamps, zero on failure.
func parseBubbleTime(v interface{}) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Text returns a string field, or "" when absent or not a string.
func (r Record) Text(key string) string {
	s, _ := r.Fields[key].(string)
	return s
}

// Strings returns a list-of-strings field. Bubble encodes lists as JSON
// arrays; non-string elements are skipped.
func (r Record) Strings(key string) []string {
	raw, ok := r.Fields[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Number returns a numeric field, or 0 when absent.
func (r Record) Number(key string) float64 {
	f, _ := r.Fields[key].(float64)
	return f
}

// FieldNames returns the application field names, sorted.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// PlainText flattens every string-ish field into one search/scan blob.
// Field order is deterministic.
func (r Record) PlainText() string {
	var parts []string
	for _, name := range r.FieldNames() {
		switch v := r.Fields[name].(type) {
		case string:
			if v != "" {
				parts = append(parts, v)
			}
		case []interface{}:
			for _, e := range v {
				if s, ok := e.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, "\n")
}

// FieldPresence computes, per field name, the fraction of records in
// which the field is present and non-empty. Records contribute to the
// denominator of every field seen anywhere in the sample.
func FieldPresence(records []Record) map[string]float64 {
	if len(records) == 0 {
		return nil
	}

	nonEmpty := map[string]int{}
	for _, r := range records {
		for name, v := range r.Fields {
			if _, ok := nonEmpty[name]; !ok {
				nonEmpty[name] = 0
			}
			if !isEmptyValue(v) {
				nonEmpty[name]++
			}
		}
	}

	out := make(map[string]float64, len(nonEmpty))
	for name, n := range nonEmpty {
		out[name] = float64(n) / float64(len(records))
	}
	return out
}

func isEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	default:
		return false
	}
}
