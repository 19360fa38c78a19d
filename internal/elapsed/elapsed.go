package elapsed

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Since returns a human readable distance between t and now, e.g. "3 days ago".
// A zero t yields an empty string.
func Since(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
