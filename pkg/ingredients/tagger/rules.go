package tagger

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/cognicore/ingredients/pkg/ingredients/ingest"
	"github.com/cognicore/ingredients/pkg/ingredients/quantity"
	"github.com/cognicore/ingredients/pkg/ingredients/units"
)

// Rules is a model-free tagger for environments without CRF++. It labels
// a line as:
//
//	QTY      leading quantities, including ranges ("1", "to", "2")
//	UNIT     the first known unit after the quantities
//	COMMENT  parenthesized tokens and everything from the first comma on
//	NAME     the rest
//
// Every tag is reported with confidence 1.
type Rules struct {
	Units *units.Lexicon
}

// NewRules returns a rule tagger over lex, or the default lexicon when lex is nil.
func NewRules(lex *units.Lexicon) *Rules {
	if lex == nil {
		lex = units.DefaultLexicon()
	}
	return &Rules{Units: lex}
}

// Fingerprint identifies the rule set by its unit lexicon.
func (r *Rules) Fingerprint() string {
	h := blake3.New()
	for _, c := range r.lexicon().Canonicals() {
		h.Write([]byte(c))
		for _, v := range r.lexicon().Variants(c) {
			h.Write([]byte{0})
			h.Write([]byte(v))
		}
		h.Write([]byte{'\n'})
	}
	return "rules:" + hex.EncodeToString(h.Sum(nil))
}

// Tag labels every token line of the export text.
func (r *Rules) Tag(ctx context.Context, input string) (string, error) {
	var (
		out   strings.Builder
		block []string
	)

	flush := func() {
		if len(block) == 0 {
			return
		}
		tags := r.label(block)
		out.WriteString("# 1.000000\n")
		prev := ""
		for i, line := range block {
			prefix := "B-"
			if tags[i] == prev {
				prefix = "I-"
			}
			prev = tags[i]
			out.WriteString(line)
			out.WriteString("\t")
			out.WriteString(prefix + tags[i] + "/1.000000\n")
		}
		out.WriteString("\n")
		block = nil
	}

	for _, line := range strings.Split(input, "\n") {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	flush()

	return out.String(), nil
}

func (r *Rules) label(lines []string) []string {
	n := len(lines)
	tokens := make([]string, n)
	inParen := make([]bool, n)
	depth := 0
	for i, line := range lines {
		tok, _, _ := strings.Cut(line, "\t")
		tokens[i] = ingest.Unclump(tok)

		// The PAREN feature matches by substring, so "1" in
		// "1 (14-ounce) can" would count as parenthesized.
		switch tok {
		case "(":
			depth++
			inParen[i] = true
		case ")":
			inParen[i] = true
			if depth > 0 {
				depth--
			}
		default:
			inParen[i] = depth > 0
		}
	}

	comma := n
	for i, tok := range tokens {
		if tok == "," {
			comma = i
			break
		}
	}

	tags := make([]string, n)
	i := 0
	for i < comma && !inParen[i] {
		if quantity.IsQuantity(tokens[i]) {
			tags[i] = "QTY"
			i++
			continue
		}
		if i > 0 && i+1 < comma && isRangeWord(tokens[i]) && quantity.IsQuantity(tokens[i+1]) {
			tags[i] = "QTY"
			i++
			continue
		}
		break
	}

	j := i
	for j < comma && inParen[j] {
		j++
	}
	unit := -1
	if j < comma && r.lexicon().IsUnit(tokens[j]) {
		unit = j
	}

	for k := i; k < n; k++ {
		switch {
		case k == unit:
			tags[k] = "UNIT"
		case k >= comma || inParen[k]:
			tags[k] = "COMMENT"
		default:
			tags[k] = "NAME"
		}
	}
	return tags
}

var defaultLexicon = sync.OnceValue(units.DefaultLexicon)

func (r *Rules) lexicon() *units.Lexicon {
	if r.Units == nil {
		return defaultLexicon()
	}
	return r.Units
}

func isRangeWord(tok string) bool {
	switch strings.ToLower(tok) {
	case "to", "or", "-", "–", "—":
		return true
	}
	return false
}
