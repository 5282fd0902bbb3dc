package contextutils

import (
	"strings"
	"time"
)

// ISO8601Layout is the timestamp layout tickets are persisted with. It matches
// the second-resolution local form ("2024-06-01T12:30:00") that the stored
// table uses.
const ISO8601Layout = "2006-01-02T15:04:05"

// ParseISO8601 parses a stored ticket timestamp. It accepts the canonical
// second-resolution form as well as fractional-second and zoned variants so
// externally edited rows still load. Zone-less values are local wall time,
// matching how submission timestamps are written; parsing them as UTC would
// skew ticket ages by the host's UTC offset.
func ParseISO8601(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range []string{ISO8601Layout, "2006-01-02T15:04:05.999999999"} {
		ts, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano} {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, WrapErrorf(ErrInvalidFormat, "invalid ISO-8601 timestamp %q: %w", value, lastErr)
}

// IsValidName reports whether a submitted reporter name is usable. The store
// treats a record with an empty name as invalid, so submission enforces the
// same rule up front.
func IsValidName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// IsValidCoordinate reports whether lat/lon form a plausible WGS84 coordinate.
func IsValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
