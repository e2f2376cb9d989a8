package database

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// sqlDate scans DATE values. Postgres hands back time.Time while SQLite
// returns the stored text, and aggregates lose the column type entirely.
type sqlDate struct {
	Time  time.Time
	Valid bool
}

func (d *sqlDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time, d.Valid = time.Time{}, false
		return nil
	case time.Time:
		d.Time, d.Valid = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), true
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
}

func (d *sqlDate) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}

	d.Time, d.Valid = t, true
	return nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// sqlTimestamp scans TIMESTAMP/DATETIME columns from either driver.
type sqlTimestamp struct {
	Time time.Time
}

func (ts *sqlTimestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		ts.Time = time.Time{}
		return nil
	case time.Time:
		ts.Time = v
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (ts *sqlTimestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
