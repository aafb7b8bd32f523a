// AngelaMos | 2026
// number.go

package joborder

import (
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// NextNumber returns the job order number that follows last on day. The
// sequence restarts at 1 when last is empty or has no trailing digits.
func NextNumber(day time.Time, last string) string {
	seq := trailingNumber(last) + 1
	return fmt.Sprintf("%s-JO-%04d", day.Format(dateLayout), seq)
}

func trailingNumber(s string) int {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}

	if i == len(s) {
		return 0
	}

	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0
	}
	return n
}

// dayBounds returns the half-open interval covering the calendar day of t
// in loc.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
