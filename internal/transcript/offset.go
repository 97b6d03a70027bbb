package transcript

import (
	"fmt"
	"strconv"
	"strings"
)

// OffsetSeconds converts an ISO-8601 duration offset such as "PT1M30.5S"
// to elapsed seconds for playback seeking.
func OffsetSeconds(offset string) (float64, error) {
	s := strings.TrimSpace(offset)
	if !strings.HasPrefix(s, "PT") {
		return 0, fmt.Errorf("transcript: offset %q: missing PT prefix", offset)
	}
	s = s[2:]
	if s == "" {
		return 0, fmt.Errorf("transcript: offset %q: no components", offset)
	}

	var total float64
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c == '.' {
			continue
		}

		value, err := strconv.ParseFloat(s[start:i], 64)
		if err != nil {
			return 0, fmt.Errorf("transcript: offset %q: bad number %q", offset, s[start:i])
		}
		switch c {
		case 'H':
			total += value * 3600
		case 'M':
			total += value * 60
		case 'S':
			total += value
		default:
			return 0, fmt.Errorf("transcript: offset %q: unknown unit %q", offset, string(c))
		}
		start = i + 1
	}
	if start != len(s) {
		return 0, fmt.Errorf("transcript: offset %q: trailing digits without unit", offset)
	}

	return total, nil
}
