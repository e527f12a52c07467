package security

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"time"
)

// DefaultExpiration is used when a configured lifetime cannot be parsed.
const DefaultExpiration = 7 * 24 * time.Hour

var expirationPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseExpiration parses a lifetime of the form <integer><unit> where unit is
// s, m, h or d. Zero and values that overflow time.Duration are errors.
func ParseExpiration(s string) (time.Duration, error) {
	m := expirationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid expiration %q: want <integer><s|m|h|d>", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expiration %q: %w", s, err)
	}
	var unit time.Duration
	switch m[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid expiration %q: must be positive", s)
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("invalid expiration %q: out of range", s)
	}
	return time.Duration(n) * unit, nil
}

// ExpirationOrDefault parses s, falling back to DefaultExpiration with a
// warning when s is malformed.
func ExpirationOrDefault(logger *slog.Logger, name, s string) time.Duration {
	d, err := ParseExpiration(s)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("falling back to default token lifetime", "setting", name, "value", s, "default", DefaultExpiration)
		return DefaultExpiration
	}
	return d
}
