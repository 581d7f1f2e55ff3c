package libcal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fivetwenty-io/libcal/internal/constants"
)

// Time accepts the timestamp layouts LibCal returns.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	constants.ReserveTimeFormat,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	constants.DateFormat,
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// ParseTime parses value with the first matching LibCal layout.
func ParseTime(value string) (Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return Time{Time: t}, nil
		}
	}

	return Time{}, fmt.Errorf("%w: unrecognized time %q", ErrDecode, value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Time{}

		return nil
	}

	var s string

	err := json.Unmarshal(data, &s)
	if err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}

	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// MarshalJSON implements json.Marshaler. The zero time encodes as null.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.Format(time.RFC3339))
}

// MarshalYAML implements yaml.Marshaler.
func (t Time) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}

	return t.Format(time.RFC3339), nil
}
