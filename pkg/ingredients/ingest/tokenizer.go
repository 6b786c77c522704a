package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Sentinel replaces the space inside a mixed number ("1 2/3" -> "1$2/3") so
// that it survives splitting as one token. Trained models expect "$".
const Sentinel = "$"

// DefaultAmericanUnits are the unit words whose trailing slash introduces a
// metric equivalent, as in "2 cups/300 grams flour".
var DefaultAmericanUnits = []string{"cup", "tablespoon", "teaspoon", "pound", "ounce", "quart", "pint"}

var (
	gramsPattern       = regexp.MustCompile(`(\d+)g\b`)
	ouncesPattern      = regexp.MustCompile(`(\d+)oz\b`)
	millilitersPattern = regexp.MustCompile(`(?i)(\d+)ml\b`)

	clumpPattern   = regexp.MustCompile(`(\d+)\s+(\d)/(\d)`)
	clumpTemplate  = "${1}" + strings.ReplaceAll(Sentinel, "$", "$$") + "${2}/${3}"
	unclumpPattern = regexp.MustCompile(`(\d+)` + regexp.QuoteMeta(Sentinel) + `(\d/\d)`)

	// Only complete tags. A lone "<" with no closing ">" is ordinary text.
	tagPattern = regexp.MustCompile(`<[^<]+?>`)
)

// Tokenizer splits raw ingredient lines into tokens the tagger understands.
// It holds no mutable state after construction.
type Tokenizer struct {
	americanUnits []string
}

// NewTokenizer creates a tokenizer. With no units given, DefaultAmericanUnits is used.
func NewTokenizer(americanUnits ...string) *Tokenizer {
	if len(americanUnits) == 0 {
		americanUnits = DefaultAmericanUnits
	}
	units := make([]string, len(americanUnits))
	copy(units, americanUnits)
	return &Tokenizer{americanUnits: units}
}

// Tokenize turns a raw line into tokens. Mixed numbers keep the Sentinel in
// place of their inner space; Unclump reverses that.
func (t *Tokenizer) Tokenize(line string) []string {
	s := StripTags(line)
	s = ExpandAbbreviations(s)
	s = t.SplitMetricAlternates(s)
	s = ClumpFractions(s)
	return Split(s)
}

// StripTags removes complete HTML tags and decodes entities in the text
// between them. Unterminated markup such as "a<b cup" is kept verbatim.
func StripTags(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}

// ExpandAbbreviations rewrites tight unit abbreviations: "100g" -> "100 grams",
// "4oz" -> "4 ounces", "250ml" -> "250 milliliters".
func ExpandAbbreviations(s string) string {
	s = gramsPattern.ReplaceAllString(s, "${1} grams")
	s = ouncesPattern.ReplaceAllString(s, "${1} ounces")
	s = millilitersPattern.ReplaceAllString(s, "${1} milliliters")
	return s
}

// SplitMetricAlternates turns "cups/300" into "cups 300" for the configured
// American units, singular or plural.
func (t *Tokenizer) SplitMetricAlternates(s string) string {
	for _, unit := range t.americanUnits {
		s = strings.ReplaceAll(s, unit+"/", unit+" ")
		s = strings.ReplaceAll(s, unit+"s/", unit+"s ")
	}
	return s
}

// ClumpFractions joins a whole number and its fraction with the Sentinel.
func ClumpFractions(s string) string {
	return clumpPattern.ReplaceAllString(s, clumpTemplate)
}

// Unclump restores the space replaced by ClumpFractions. Any other "$", as in
// "$5", is left alone.
func Unclump(token string) string {
	return unclumpPattern.ReplaceAllString(token, "${1} ${2}")
}

// Split breaks s on whitespace runs and emits each comma and parenthesis as
// its own token.
func Split(s string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == ',' || r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}
