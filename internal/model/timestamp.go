package model

import (
	"fmt"
	"strings"
	"time"
)

// WireFormat is the timestamp layout the upstream oplog accepts.
const WireFormat = "2006-01-02 15:04:05"

// Timestamp is a UTC, second-precision wall clock value. It marshals to the
// upstream wire format and additionally accepts RFC 3339 on input, since
// shell hooks commonly emit `date -Iseconds` output.
type Timestamp struct {
	time.Time
}

// Now returns the current time truncated to second precision in UTC.
func Now() Timestamp {
	return Timestamp{time.Now().UTC().Truncate(time.Second)}
}

// At wraps t, normalizing to UTC second precision.
func At(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Second)}
}

// ParseTimestamp accepts the wire format or RFC 3339.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(WireFormat, s); err == nil {
		return At(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return At(t), nil
	}
	return Timestamp{}, NewValidationError("timestamp", fmt.Sprintf("unrecognized timestamp %q", s))
}

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(WireFormat)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ts.String() + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
