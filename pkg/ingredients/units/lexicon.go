package units

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon maps unit spellings to a canonical abbreviation:
//   - "ounces", "ounce", "-ounce", "oz" -> "oz"
//   - "tablespoon", "Tbsp.", "tbs" -> "tbsp"
//
// Lookups are case-insensitive. A Lexicon is built once and then only read,
// so it is safe to share between goroutines.
type Lexicon struct {
	// canonical -> all variants (canonical first)
	groups map[string][]string

	// variant -> canonical
	reverseIndex map[string]string
}

// Group is one canonical unit and its spellings.
type Group struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// DefaultGroups is the built-in unit synonym table.
// Multi-word units ("small bunch") are not representable.
var DefaultGroups = []Group{
	{"l", []string{"l", "litre", "litres", "liter", "liters"}},
	{"ml", []string{"ml", "millilitre", "milli litre", "millilitres", "milli litres", "milliliter", "milli liter", "milliliters", "milli liters"}},
	{"g", []string{"g", "gram", "grams"}},
	{"mg", []string{"mg", "milligram", "milli gram", "milligrams", "milli grams"}},
	{"kg", []string{"kg", "kilogram", "kilo gram", "kilograms", "kilo grams"}},
	{"oz", []string{"oz", "ounce", "ounces", "-ounce"}},
	{"qt", []string{"qt", "quart", "quarts"}},
	{"fl", []string{"fl"}},
	{"tsp", []string{"tsp", "tsps", "tsp.", "tsps.", "teaspoon", "teaspoons"}},
	{"tbsp", []string{"tbs", "tbsp", "tbsps", "tbsp.", "tbsps.", "tablespoon", "tablespoons"}},
	{"cup", []string{"cup", "cups", "c."}},
	{"pint", []string{"pint", "pints"}},
	{"pinch", []string{"pinch", "pinches"}},
	{"dash", []string{"dash", "dashes"}},
	{"bunch", []string{"bunch", "bunches"}},
	{"pack", []string{"pack", "packet"}},
	{"strip", []string{"strip", "strips"}},
	{"can", []string{"can", "cans"}},
	{"envelope", []string{"envelope", "envelopes", "sheet", "sheets"}},
	{"gal", []string{"gal", "gallon", "gallons"}},
	{"lb", []string{"lb", "lbs", "lb.", "lbs.", "pound", "pounds", "-pound"}},
	{"whole", []string{"whole"}},
	{"head", []string{"head", "heads"}},
	{"clove", []string{"clove", "cloves"}},
	{"handful", []string{"handful", "handfuls"}},
	{"piece", []string{"piece", "pieces"}},
	{"large", []string{"large"}},
	{"medium", []string{"medium"}},
	{"small", []string{"small"}},
	{"inch", []string{"inch", "inches", "\""}},
	{"cm", []string{"cm"}},
}

// NewLexicon builds a lexicon from the given groups. Later groups with the
// same canonical replace earlier ones.
func NewLexicon(groups []Group) *Lexicon {
	lex := &Lexicon{
		groups:       make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
	for _, g := range groups {
		lex.addGroup(g.Canonical, g.Variants)
	}
	return lex
}

// DefaultLexicon returns a lexicon holding DefaultGroups.
func DefaultLexicon() *Lexicon {
	return NewLexicon(DefaultGroups)
}

// LoadLexicon loads unit groups from a YAML file and layers them over the
// default table.
//
// Expected format:
//
//	units:
//	  - canonical: oz
//	    variants: [ounce, ounces]
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Units []Group `yaml:"units"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse unit lexicon %s: %w", path, err)
	}

	groups := make([]Group, 0, len(DefaultGroups)+len(file.Units))
	groups = append(groups, DefaultGroups...)
	for _, g := range file.Units {
		if strings.TrimSpace(g.Canonical) == "" {
			return nil, fmt.Errorf("parse unit lexicon %s: group without canonical", path)
		}
		groups = append(groups, g)
	}
	return NewLexicon(groups), nil
}

func (l *Lexicon) addGroup(canonical string, variants []string) {
	canonical = strings.ToLower(canonical)

	if old, exists := l.groups[canonical]; exists {
		for _, v := range old {
			delete(l.reverseIndex, v)
		}
	}

	normalized := make([]string, 0, len(variants)+1)
	seen := map[string]bool{canonical: true}
	normalized = append(normalized, canonical)
	for _, v := range variants {
		v = strings.ToLower(v)
		if !seen[v] {
			normalized = append(normalized, v)
			seen[v] = true
		}
	}

	l.groups[canonical] = normalized
	for _, v := range normalized {
		l.reverseIndex[v] = canonical
	}
}

// Canonical returns the canonical abbreviation for a unit spelling.
// Plural forms known to Singularize are resolved as well.
func (l *Lexicon) Canonical(word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if c, ok := l.reverseIndex[word]; ok {
		return c, true
	}
	if c, ok := l.reverseIndex[Singularize(word)]; ok {
		return c, true
	}
	return "", false
}

// IsUnit reports whether word is a known unit spelling, either in the
// lexicon or in the plural table.
func (l *Lexicon) IsUnit(word string) bool {
	if _, ok := l.Canonical(word); ok {
		return true
	}
	lower := strings.ToLower(word)
	if _, ok := irregularPlurals[lower]; ok {
		return true
	}
	for _, singular := range irregularPlurals {
		if singular == lower {
			return true
		}
	}
	return false
}

// Variants returns every spelling of the canonical unit, canonical first.
func (l *Lexicon) Variants(canonical string) []string {
	v := l.groups[strings.ToLower(canonical)]
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// Canonicals returns the sorted list of canonical units.
func (l *Lexicon) Canonicals() []string {
	out := make([]string, 0, len(l.groups))
	for c := range l.groups {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
