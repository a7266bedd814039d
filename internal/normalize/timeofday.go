package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// TimeOfDay is a wall-clock time without a date, e.g. a work-shift bound.
type TimeOfDay struct {
	Hour   int
	Minute int
	Valid  bool
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS"; seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("normalize: invalid time of day %q", s)
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("normalize: invalid time of day %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m, Valid: true}, nil
}

// MustTimeOfDay is ParseTimeOfDay for constants.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	if !t.Valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// Before reports whether t is earlier in the day than u.
func (t TimeOfDay) Before(u TimeOfDay) bool { return t.Minutes() < u.Minutes() }

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*t = TimeOfDay{}
		return nil
	}
	parsed, err := ParseTimeOfDay(*s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeOfDay reads a field as a clock value. Full timestamps contribute their
// clock part.
func (r Record) TimeOfDay(field string) TimeOfDay {
	s := r.String(field)
	if s == "" {
		return TimeOfDay{}
	}
	if t, err := ParseTimeOfDay(s); err == nil {
		return t
	}
	if ts, ok := ParseTime(s); ok && strings.Contains(s, "T") {
		return TimeOfDay{Hour: ts.Hour(), Minute: ts.Minute(), Valid: true}
	}
	return TimeOfDay{}
}
