package gateway

import (
	"strings"
	"time"
)

// wireTimeLayout is the timestamp format exchanged with the dispatch API:
// ISO-8601 UTC with a literal Z suffix and no sub-second component.
const wireTimeLayout = "2006-01-02T15:04:05Z"

// ParseWireTime parses a gateway timestamp. Some endpoints append a
// fractional-second component; it is stripped before parsing.
func ParseWireTime(s string) (time.Time, error) {
	if i := strings.IndexByte(s, '.'); i >= 0 && strings.HasSuffix(s, "Z") {
		s = s[:i] + "Z"
	}
	return time.Parse(wireTimeLayout, s)
}

// FormatWireTime renders a timestamp in the wire format.
func FormatWireTime(t time.Time) string {
	return t.UTC().Format(wireTimeLayout)
}
