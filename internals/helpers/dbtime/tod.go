// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tod: jam dalam sehari (HH:mm[:ss]) tanpa tanggal & zona.
type Tod struct{ time.Time }

// From: bikin Tod dari time.Time (ambil HH:mm:ss, buang tanggal & zona)
func From(t time.Time) Tod {
	return Tod{
		Time: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC),
	}
}

// Parse: bikin Tod dari string "HH:mm[:ss]"
func Parse(s string) (Tod, error) {
	var tt Tod
	return tt, tt.parse(s)
}

func (t *Tod) parse(s string) error {
	s = strings.TrimSpace(s)
	if len(s) == 5 { // "HH:MM"
		s += ":00"
	}
	tt, err := time.Parse("15:04:05", s)
	if err != nil {
		return fmt.Errorf("jam tidak valid %q (format HH:mm)", s)
	}
	t.Time = tt
	return nil
}

func (t Tod) String() string {
	return t.Format("15:04")
}

func (t Tod) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("tod: %w", err)
	}
	return t.parse(s)
}

// ParseDate: "YYYY-MM-DD" di zona loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("tanggal tidak valid %q (format YYYY-MM-DD)", s)
	}
	return d, nil
}

// Combine: tanggal (di loc) + jam → instant.
func Combine(date time.Time, tod Tod, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc)
}
