// Package formatting provides human-readable formatting and parsing of byte sizes.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var units = []string{
	"B", "KB", "MB",
	"GB", "TB", "PB",
	"EB",
}

var bytesPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// FormatBytes converts a byte count to a human-readable string using base-1024 units.
// Negative counts render with a leading minus; negative precision is clamped to zero.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}
	if n < 0 {
		return "-" + FormatBytes(-n, precision)
	}
	if precision < 0 {
		precision = 0
	}

	f := float64(n)
	i := int(math.Floor(math.Log(f) / math.Log(1024)))
	i = min(i, len(units)-1)

	if i == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}

	size := f / math.Pow(1024, float64(i))
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses a size such as "64KB", "1.5 MiB" or "512" into a byte count.
// Units are base-1024 and case-insensitive; the IEC spelling (KiB, MiB, ...) is
// accepted as an alias. A bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	matches := bytesPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	unit := strings.ToUpper(matches[2])
	unit = strings.Replace(unit, "IB", "B", 1)
	if unit == "" {
		unit = "B"
	}

	idx := slices.Index(units, unit)
	if idx == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", matches[2])
	}

	total := value * math.Pow(1024, float64(idx))
	if total >= math.MaxInt64 {
		return 0, fmt.Errorf("byte size overflows int64: %q", s)
	}
	return int64(total), nil
}
