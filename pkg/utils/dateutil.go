package utils

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses a provider date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate formats a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DaysBetween returns the absolute distance between two dates in whole
// days.
func DaysBetween(a, b time.Time) int {
	return int(math.Abs(a.Sub(b).Hours()) / 24)
}

// NearestDate returns the candidate date closest to target within
// maxDays, and whether one was found. Candidates that fail to parse are
// ignored. Ties resolve to the earlier-seen candidate.
func NearestDate(candidates []string, target string, maxDays int) (string, bool) {
	t, err := ParseDate(target)
	if err != nil {
		return "", false
	}

	best := ""
	bestDist := maxDays + 1
	for _, c := range candidates {
		ct, err := ParseDate(c)
		if err != nil {
			continue
		}
		if d := DaysBetween(ct, t); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}
