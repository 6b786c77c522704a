// Package quantity converts ingredient quantity text ("2", "1/2", "1 ½",
// "1-2") into a number.
package quantity

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnrecognized is returned when quantity text matches no known numeric form.
var ErrUnrecognized = errors.New("quantity unrecognized")

// FractionSlash is U+2044, used by "vulgar-slash" fractions such as "1⁄2".
const FractionSlash = "⁄"

// glyphClass matches one Unicode vulgar-fraction character.
const glyphClass = `[\x{00BC}-\x{00BE}\x{2150}-\x{215E}\x{2189}]`

// rule is one numeric form. Rules are tried in order and the first one whose
// pattern matches at the start of the text wins.
type rule struct {
	name    string
	pattern *regexp.Regexp
	convert func(m []string) (float64, bool)
}

var rules = []rule{
	{"glyph", regexp.MustCompile(`^(` + glyphClass + `)`), func(m []string) (float64, bool) {
		return glyphValue(m[1])
	}},
	{"fraction", regexp.MustCompile(`^(\d+)/(\d+)`), func(m []string) (float64, bool) {
		return divide(m[1], m[2])
	}},
	{"slash-fraction", regexp.MustCompile(`^(\d+)` + FractionSlash + `(\d+)`), func(m []string) (float64, bool) {
		return divide(m[1], m[2])
	}},
	{"whole-glyph", regexp.MustCompile(`^(\d+)\s?(` + glyphClass + `)`), func(m []string) (float64, bool) {
		frac, ok := glyphValue(m[2])
		return integer(m[1]) + frac, ok
	}},
	{"whole-fraction", regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)`), func(m []string) (float64, bool) {
		frac, ok := divide(m[2], m[3])
		return integer(m[1]) + frac, ok
	}},
	{"whole-slash-fraction", regexp.MustCompile(`^(\d+)\s+(\d+)` + FractionSlash + `(\d+)`), func(m []string) (float64, bool) {
		frac, ok := divide(m[2], m[3])
		return integer(m[1]) + frac, ok
	}},
	{"decimal", regexp.MustCompile(`^(\d*\.\d+)`), func(m []string) (float64, bool) {
		v, err := strconv.ParseFloat(m[1], 64)
		return v, err == nil
	}},
	{"integer", regexp.MustCompile(`^(\d+)`), func(m []string) (float64, bool) {
		return integer(m[1]), true
	}},
}

// rangeSeparator splits "1-2", "1 to 2" and "1 or 2" into candidates.
var rangeSeparator = regexp.MustCompile(`\s*(?:-|–|—|\bto\b|\bor\b)\s*`)

// ToNumber converts a single quantity to a float. ok is false when the text
// matches none of the recognized forms.
func ToNumber(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(text); m != nil {
			return r.convert(m)
		}
	}
	return 0, false
}

// IsQuantity reports whether text is entirely a quantity or a range of
// quantities, with nothing trailing ("2", "1 1/2", "1-2", but not "2large").
func IsQuantity(text string) bool {
	candidates := Candidates(text)
	if len(candidates) == 0 {
		return false
	}
	for _, c := range candidates {
		if !exact(c) {
			return false
		}
	}
	return true
}

func exact(text string) bool {
	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(text); m != nil {
			if _, ok := r.convert(m); !ok {
				return false
			}
			return len(m[0]) == len(text)
		}
	}
	return false
}

// Candidates splits quantity text on range separators, dropping blanks.
func Candidates(text string) []string {
	var out []string
	for _, part := range rangeSeparator.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Average returns the mean value of the candidates. No candidates means a
// single unit, so the result is 1.
func Average(candidates []string) (float64, error) {
	var sum float64
	var n int
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		v, ok := ToNumber(c)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnrecognized, c)
		}
		sum += v
		n++
	}
	if n == 0 {
		return 1, nil
	}
	return sum / float64(n), nil
}

// Parse converts a whole qty field, ranges included, into one number.
func Parse(text string) (float64, error) {
	return Average(Candidates(text))
}

// glyphValue uses the compatibility decomposition of a vulgar fraction
// ("½" -> "1⁄2") to compute its value.
func glyphValue(glyph string) (float64, bool) {
	num, den, found := strings.Cut(norm.NFKD.String(glyph), FractionSlash)
	if !found {
		return 0, false
	}
	return divide(num, den)
}

func divide(num, den string) (float64, bool) {
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	d, err := strconv.Atoi(den)
	if err != nil || d == 0 {
		return 0, false
	}
	return float64(n) / float64(d), true
}

func integer(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
