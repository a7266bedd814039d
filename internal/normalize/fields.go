package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Synonyms maps a canonical field name to the keys it has been published
// under, in preference order. Fields missing here are looked up verbatim.
var Synonyms = map[string][]string{
	"id":              {"_id", "id"},
	"fullName":        {"fullName", "full_name", "name"},
	"username":        {"username", "full_name", "fullName", "name"},
	"phone":           {"phone", "phone_number", "phoneNumber"},
	"email":           {"email", "mail"},
	"company":         {"company", "organization"},
	"image":           {"image", "profile_picture", "avatar"},
	"avatar":          {"avatar", "image", "photo"},
	"birthdate":       {"birthdate", "birthDate", "birth_date"},
	"specialty":       {"specialty", "speciality", "specialization"},
	"experienceYears": {"experienceYears", "experience"},
	"patientsCount":   {"patients", "patientsCount"},
	"reviewsCount":    {"reviewsCount", "reviews"},
	"isAvailable24x7": {"isAvailable24x7", "available24x7"},
	"isActive":        {"isActive", "active"},
	"workTime":        {"workTime", "workingHours"},
	"distanceKm":      {"distanceKm", "distance"},
	"patient":         {"patient", "user"},
	"appointmentDate": {"appointmentDate", "date"},
	"appointmentTime": {"appointmentTime", "time"},
	"service":         {"service", "serviceName"},
	"comment":         {"comment", "notes", "note"},
}

// Keys returns the lookup keys for a canonical field.
func Keys(field string) []string {
	if keys, ok := Synonyms[field]; ok {
		return keys
	}
	return []string{field}
}

// Record is a decoded JSON object read through the synonym table.
type Record map[string]any

// Value returns the first present, non-empty value among the field's keys.
func (r Record) Value(field string) (any, bool) {
	for _, key := range Keys(field) {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// String returns the field as text; numbers and booleans are formatted.
func (r Record) String(field string) string {
	v, ok := r.Value(field)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case interface{ String() string }:
		return t.String()
	default:
		return ""
	}
}

// Float returns the field as a number, accepting numeric strings.
func (r Record) Float(field string) (float64, bool) {
	v, ok := r.Value(field)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Int returns the field truncated to an integer.
func (r Record) Int(field string) (int, bool) {
	f, ok := r.Float(field)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Bool returns the field as a boolean, accepting "true"/"false" strings.
func (r Record) Bool(field string) (bool, bool) {
	v, ok := r.Value(field)
	if !ok {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	default:
		return false, false
	}
}

// Time parses the field as RFC 3339 or a bare calendar date.
func (r Record) Time(field string) (time.Time, bool) {
	s := r.String(field)
	if s == "" {
		return time.Time{}, false
	}
	return ParseTime(s)
}

// Object returns the field as a nested record.
func (r Record) Object(field string) Record {
	v, ok := r.Value(field)
	if !ok {
		return Record{}
	}
	if m, isMap := v.(map[string]any); isMap {
		return Record(m)
	}
	return Record{}
}

// IsObject reports whether the field holds a nested object.
func (r Record) IsObject(field string) bool {
	v, ok := r.Value(field)
	if !ok {
		return false
	}
	_, isMap := v.(map[string]any)
	return isMap
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts the timestamp layouts the API has been observed to emit.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
