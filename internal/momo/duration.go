package momo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// humanDurationPattern matches a number followed by a unit word, the
// style jobs are defined with ("1 second", "500 milliseconds", "5m").
// None of the example repos in this module's lineage carry a
// dedicated human-duration-string library (they either take seconds
// as an integer or a cron expression), so this is implemented against
// the standard library: strconv for the number, a small unit table for
// the word form (which also covers single-unit Go-style strings like
// "1s" or "500ms"), falling back to time.ParseDuration for multi-unit
// Go-style strings like "1h30m".
var humanDurationPattern = regexp.MustCompile(`(?i)^\s*(-?\d+(?:\.\d+)?)\s*([a-z]+)\s*$`)

var durationUnits = map[string]time.Duration{
	"ms":           time.Millisecond,
	"msec":         time.Millisecond,
	"msecs":        time.Millisecond,
	"millisecond":  time.Millisecond,
	"milliseconds": time.Millisecond,
	"s":            time.Second,
	"sec":          time.Second,
	"secs":         time.Second,
	"second":       time.Second,
	"seconds":      time.Second,
	"m":            time.Minute,
	"min":          time.Minute,
	"mins":         time.Minute,
	"minute":       time.Minute,
	"minutes":      time.Minute,
	"h":            time.Hour,
	"hr":           time.Hour,
	"hrs":          time.Hour,
	"hour":         time.Hour,
	"hours":        time.Hour,
	"d":            24 * time.Hour,
	"day":          24 * time.Hour,
	"days":         24 * time.Hour,
}

// parseHumanDuration parses a duration expressed either in the
// word-unit style ("1 second", "5 minutes") or the Go duration style
// ("500ms", "5m"). It returns an error unless the result is a
// positive, finite duration.
func parseHumanDuration(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	if m := humanDurationPattern.FindStringSubmatch(trimmed); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration magnitude %q: %w", m[1], err)
		}
		unit, ok := durationUnits[strings.ToLower(m[2])]
		if ok {
			d := time.Duration(value * float64(unit))
			return validatePositiveFinite(d)
		}
	}

	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("unrecognized duration %q: %w", s, err)
	}
	return validatePositiveFinite(d)
}

func validatePositiveFinite(d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}
