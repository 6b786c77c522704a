package units

// irregularPlurals maps plural unit words to their singular form. Lookup is
// exact; anything absent passes through so ingredient names are never mangled.
var irregularPlurals = map[string]string{
	"cups":        "cup",
	"tablespoons": "tablespoon",
	"teaspoons":   "teaspoon",
	"pounds":      "pound",
	"ounces":      "ounce",
	"cloves":      "clove",
	"sprigs":      "sprig",
	"pinches":     "pinch",
	"bunches":     "bunch",
	"slices":      "slice",
	"grams":       "gram",
	"heads":       "head",
	"quarts":      "quart",
	"stalks":      "stalk",
	"pints":       "pint",
	"pieces":      "piece",
	"sticks":      "stick",
	"dashes":      "dash",
	"fillets":     "fillet",
	"cans":        "can",
	"ears":        "ear",
	"packages":    "package",
	"strips":      "strip",
	"bulbs":       "bulb",
	"bottles":     "bottle",
}

// Singularize returns the singular form of a unit word, or the word itself
// when it is not a known plural.
func Singularize(word string) string {
	if singular, ok := irregularPlurals[word]; ok {
		return singular
	}
	return word
}

// Plurals returns a copy of the plural to singular table.
func Plurals() map[string]string {
	out := make(map[string]string, len(irregularPlurals))
	for k, v := range irregularPlurals {
		out[k] = v
	}
	return out
}
