package channel

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var groupingPrinter = message.NewPrinter(language.English)

// Format renders v using the spec's DisplayFormat, which follows the small
// d3-format subset used by chart labels: an optional "," for digit
// grouping, an optional ".N" precision, and a type of "f" or "d".
// Anything else falls back to %g.
func (s Spec) Format(v float64) string {
	return FormatValue(s.DisplayFormat, v)
}

// FormatValue formats v with a d3-style format string.
func FormatValue(format string, v float64) string {
	grouped := strings.HasPrefix(format, ",")
	f := strings.TrimPrefix(format, ",")
	if f == "" {
		return fmt.Sprintf("%g", v)
	}

	var verb string
	switch kind := f[len(f)-1]; kind {
	case 'd':
		if f != "d" {
			return fmt.Sprintf("%g", v)
		}
		verb = "%.0f"
	case 'f':
		precision := 6
		if spec := f[:len(f)-1]; spec != "" {
			if !strings.HasPrefix(spec, ".") {
				return fmt.Sprintf("%g", v)
			}
			p, err := strconv.Atoi(spec[1:])
			if err != nil || p < 0 {
				return fmt.Sprintf("%g", v)
			}
			precision = p
		}
		verb = "%." + strconv.Itoa(precision) + "f"
	default:
		return fmt.Sprintf("%g", v)
	}

	if grouped {
		return groupingPrinter.Sprintf(verb, v)
	}
	return fmt.Sprintf(verb, v)
}
