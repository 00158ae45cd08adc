package utils

import (
	"time"
)

// Iso8601FromUnixSeconds converts a Unix timestamp to ISO8601 format.
// Returns an empty string for non-positive timestamps.
func Iso8601FromUnixSeconds(sec int64) string {
	if sec <= 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// Iso8601Now returns the current time in ISO8601 format.
func Iso8601Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CombineHighLow reassembles a 64-bit epoch value that arrived on the wire
// as split high/low 32-bit halves.
func CombineHighLow(high, low uint32) int64 {
	if high == 0 {
		return int64(low)
	}
	return int64(high)<<32 + int64(low)
}
