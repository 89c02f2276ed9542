package model

import (
	"fmt"
	"time"
)

// RelativeDate renders t the way post cards show it: "today", "yesterday",
// "N days ago" within a week, otherwise the calendar date.
func RelativeDate(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	}

	return t.Format("2006-01-02")
}
