// Package bytesize parses the k/m/g-suffixed byte-size strings used by
// instance resource limits (spec.md §3, "memory", "cpu", "swap"; §8
// invariant 6).
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kilo = 1024
	mega = kilo * 1024
	giga = mega * 1024
)

// Parse converts a byte-size string to a byte count. Accepts a bare
// integer (bytes), or an integer followed by a case-insensitive k/m/g
// suffix (kibi/mebi/gibi multiples, matching the 1024-based convention
// the source format uses). "1g" == "1G" == 1073741824; "500m" ==
// 524288000. Returns an error on malformed input.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("bytesize: empty value")
	}

	mult := int64(1)
	numPart := s
	switch last := s[len(s)-1]; last {
	case 'k', 'K':
		mult = kilo
		numPart = s[:len(s)-1]
	case 'm', 'M':
		mult = mega
		numPart = s[:len(s)-1]
	case 'g', 'G':
		mult = giga
		numPart = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(numPart), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: malformed value %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("bytesize: negative value %q", s)
	}
	return n * mult, nil
}

// MustParse is like Parse but panics on error. Intended for constants and
// tests, not for decoding untrusted config.
func MustParse(s string) int64 {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}
