package models

import (
	"errors"
	"strconv"
	"time"
)

// naiveISOLayout matches ISO-8601 timestamps written without an offset.
const naiveISOLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a time.Time persisted as an ISO-8601 string.
// Values without an offset are read as UTC.
type Timestamp struct {
	time.Time
}

// At wraps t as a Timestamp
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Ptr returns a pointer to a Timestamp wrapping t
func Ptr(t time.Time) *Timestamp {
	ts := At(t)
	return &ts
}

// MarshalJSON writes the timestamp in RFC 3339 form
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Format(time.RFC3339Nano))), nil
}

// UnmarshalJSON accepts RFC 3339 and offset-less ISO-8601 strings
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		t.Time = time.Time{}
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return errors.New("timestamp must be a JSON string")
	}
	parsed, err := ParseTimestamp(unquoted)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses an ISO-8601 string with or without offset
func ParseTimestamp(s string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return parsed, nil
	}
	return time.ParseInLocation(naiveISOLayout, s, time.UTC)
}
