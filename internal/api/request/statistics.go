package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxUpcomingLimit bounds the limit query parameter of the upcoming payments endpoint.
const MaxUpcomingLimit = 1000

// ParseAsOf reads the as_of query parameter (YYYY-MM-DD or RFC3339).
// An empty value means the start of the current UTC day. The result is always in UTC.
func ParseAsOf(param string, now time.Time) (time.Time, error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return now.UTC().Truncate(24 * time.Hour), nil
	}

	asOf, err := time.Parse("2006-01-02", param)
	if err != nil {
		asOf, err = time.Parse(time.RFC3339, param)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid as_of date %q: expected YYYY-MM-DD or RFC3339", param)
		}
	}
	return asOf.UTC(), nil
}

// ParseLimit reads the limit query parameter. An empty value returns 0, meaning
// the configured default applies.
func ParseLimit(param string) (int, error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(param)
	if err != nil || limit < 1 || limit > MaxUpcomingLimit {
		return 0, fmt.Errorf("invalid limit %q: must be between 1 and %d", param, MaxUpcomingLimit)
	}
	return limit, nil
}
