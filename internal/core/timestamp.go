package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing created_at strings.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the formats backends commonly emit for created_at.
// Numeric input is read as Unix milliseconds. The result is invalid, not an
// error, when nothing matches.
func ParseTimestamp(raw string) Timestamp {
	s := strings.TrimSpace(raw)
	ts := Timestamp{Raw: raw}
	if s == "" {
		return ts
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		ts.Time = time.UnixMilli(ms).UTC()
		ts.Valid = true
		return ts
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			ts.Valid = true
			return ts
		}
	}
	return ts
}

// MarshalJSON encodes a valid timestamp as RFC 3339 and an invalid one as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON never fails: malformed values decode to an invalid Timestamp
// so one bad row cannot reject the whole payload.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	s, ok := jsonScalar(data)
	if !ok {
		*t = Timestamp{Raw: string(data)}
		return nil
	}
	*t = ParseTimestamp(s)
	return nil
}
