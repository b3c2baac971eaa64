package collect

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// ParseReferenceTime parses the reference time string used when replaying a
// captured snapshot: staleness is evaluated "as of" this moment instead of
// the server clock.
//
// Supported formats:
//   - Unix timestamps: "1609459200"
//   - Composite offsets: "now-2h", "now-30m", "now-1d"
//   - Human-readable dates: "now", "yesterday", "2024-01-01", RFC3339, etc.
//
// Parsing is relative to the server's current time in UTC. Numeric strings
// are always treated as Unix seconds.
func ParseReferenceTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, NewValidationError("reference time is required")
	}

	// Unix seconds first so plain integers never hit the date parser.
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		if unix < 0 {
			return time.Time{}, NewValidationError("reference time must be non-negative")
		}
		return time.Unix(unix, 0).UTC(), nil
	}

	// "now-<duration>" is parsed strictly: once the input looks like it,
	// a malformed duration is an error rather than a date-parser fallback.
	trimmed := strings.TrimSpace(s)
	if nowMinusPattern.MatchString(trimmed) {
		return parseNowMinus(trimmed)
	}

	parser := dps.Parser{}
	cfg := &dps.Configuration{
		// CurrentPeriod makes bare month or weekday names resolve inside
		// the current period, the intuitive reading for replay input.
		PreferredDateSource: dps.CurrentPeriod,
	}

	parsed, err := parser.Parse(cfg, s)
	if err != nil {
		return time.Time{}, NewValidationError("reference time must be a Unix timestamp or human-readable date: %v", err)
	}
	if parsed.IsZero() {
		return time.Time{}, NewValidationError("reference time could not be parsed: %s", s)
	}

	return parsed.Time.UTC(), nil
}

// ParseOptionalReferenceTime parses an optional reference time string. An
// empty string yields the zero time (meaning "use the current time").
func ParseOptionalReferenceTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return ParseReferenceTime(s)
}

var (
	nowMinusPattern = regexp.MustCompile(`(?i)^\s*now\s*-`)
	nowMinusCapture = regexp.MustCompile(`(?i)^\s*now\s*-\s*(.+)$`)
	durationPattern = regexp.MustCompile(`(?i)^(\d+)\s*(h|hr|hrs|hour|hours|m|min|mins|minute|minutes|d|day|days)$`)
)

// parseNowMinus handles the "now-<duration>" form, e.g. "now-2h", "now-30m",
// "now-1d".
func parseNowMinus(input string) (time.Time, error) {
	matches := nowMinusCapture.FindStringSubmatch(input)
	if len(matches) != 2 {
		return time.Time{}, NewValidationError("duration is required after 'now-'")
	}

	durationStr := strings.TrimSpace(matches[1])
	durationMatches := durationPattern.FindStringSubmatch(durationStr)
	if len(durationMatches) != 3 {
		return time.Time{}, NewValidationError("invalid duration in 'now-<duration>': expected 'now-<number><unit>' (e.g. 'now-2h', 'now-30m')")
	}

	amount, err := strconv.ParseInt(durationMatches[1], 10, 64)
	if err != nil {
		return time.Time{}, NewValidationError("invalid number in duration: %s", durationMatches[1])
	}

	unit := strings.ToLower(durationMatches[2])
	now := time.Now().UTC()

	switch {
	case strings.HasPrefix(unit, "h"):
		return now.Add(-time.Duration(amount) * time.Hour), nil
	case strings.HasPrefix(unit, "m"):
		return now.Add(-time.Duration(amount) * time.Minute), nil
	case strings.HasPrefix(unit, "d"):
		return now.AddDate(0, 0, -int(amount)), nil
	default:
		return time.Time{}, NewValidationError("unsupported duration unit: %s (supported: h, m, d)", unit)
	}
}
