package trades

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout matches the ISO-8601 form written for trades without a broker timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02",
}

// FormatTimestamp renders t the way stored timestamps are written.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// TimestampMillis parses a stored timestamp into epoch millis.
// Values that cannot be parsed sort as the epoch.
func TimestampMillis(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		// Ten digits or fewer are epoch seconds.
		if len(value) <= 10 {
			return n * 1000
		}
		return n
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
