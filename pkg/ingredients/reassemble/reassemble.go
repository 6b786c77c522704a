// Package reassemble turns the tagger's per-token output back into
// ingredient fields.
//
// Tagger output looks like this (crf_test -v 1):
//
//	# 0.511035
//	1/2       I1  L12  NoCAP  NoPAREN  B-QTY/0.982850
//	teaspoon  I2  L12  NoCAP  NoPAREN  B-UNIT/0.982200
//	fresh     I3  L12  NoCAP  NoPAREN  B-COMMENT/0.716364
//	thyme     I4  L12  NoCAP  NoPAREN  B-NAME/0.816803
//	leaves    I5  L12  NoCAP  NoPAREN  I-NAME/0.960524
//
// Columns are tab separated and a blank line ends each ingredient.
package reassemble

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cognicore/ingredients/pkg/ingredients/ingest"
	"github.com/cognicore/ingredients/pkg/ingredients/internalerr"
	"github.com/cognicore/ingredients/pkg/ingredients/units"
)

// Token is one tagged token of an ingredient line.
type Token struct {
	Text       string  `json:"text"`
	Index      int     `json:"index"`
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

// Span is a maximal run of consecutive tokens sharing one tag.
type Span struct {
	Tag    string   `json:"tag"`
	Tokens []string `json:"tokens"`
}

// Block is the reassembled result for one ingredient line.
type Block struct {
	// Fields maps each observed tag to its joined tokens. Unit tokens are
	// singularized.
	Fields map[string]string `json:"fields"`
	// Display is span markup for UI highlighting.
	Display string `json:"display"`
	// Input is the line rebuilt from its spans.
	Input       string  `json:"input"`
	Spans       []Span  `json:"spans"`
	Tokens      []Token `json:"tokens"`
	Probability float64 `json:"probability,omitempty"`
}

// LineError reports a tagger output line that breaks the wire contract.
type LineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *LineError) Unwrap() error {
	return internalerr.ErrMalformedLine
}

// Import parses tagger output lines into blocks. Blocks without tokens are
// dropped.
func Import(lines []string) ([]Block, error) {
	var (
		blocks      []Block
		current     []Token
		columns     int
		probability float64
	)

	closeBlock := func() {
		if len(current) > 0 {
			blocks = append(blocks, Assemble(current, probability))
		}
		current = nil
		columns = 0
		probability = 0
	}

	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r\n")

		if strings.TrimSpace(line) == "" {
			closeBlock()
			continue
		}

		// crf_test writes "# <probability>" before each sequence; a
		// token line always carries tabs.
		if line[0] == '#' && !strings.Contains(line, "\t") {
			if len(current) == 0 {
				if p, err := strconv.ParseFloat(strings.TrimSpace(line[1:]), 64); err == nil {
					probability = p
				}
			}
			continue
		}

		cols := strings.Split(strings.TrimSpace(line), "\t")
		if len(cols) < 2 {
			return nil, &LineError{Line: i + 1, Text: line, Reason: "expected token and tag columns"}
		}
		if columns == 0 {
			columns = len(cols)
		} else if len(cols) != columns {
			return nil, &LineError{Line: i + 1, Text: line, Reason: fmt.Sprintf("expected %d columns, got %d", columns, len(cols))}
		}

		tag, confidence, err := ParseTag(cols[len(cols)-1])
		if err != nil {
			return nil, &LineError{Line: i + 1, Text: line, Reason: err.Error()}
		}

		current = append(current, Token{
			Text:       ingest.Unclump(strings.TrimSpace(cols[0])),
			Index:      len(current) + 1,
			Tag:        tag,
			Confidence: confidence,
		})
	}
	closeBlock()

	return blocks, nil
}

// ImportReader reads tagger output from r and imports it.
func ImportReader(r io.Reader) ([]Block, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tagger output: %w", err)
	}
	return Import(lines)
}

// ParseTag splits a "B-NAME/0.97" column into a normalized tag ("name") and
// its confidence.
func ParseTag(column string) (string, float64, error) {
	tag, conf, found := strings.Cut(column, "/")
	if !found {
		return "", 0, fmt.Errorf("missing tag/confidence separator")
	}

	tag = strings.TrimPrefix(tag, "B-")
	tag = strings.TrimPrefix(tag, "I-")
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "", 0, fmt.Errorf("empty tag")
	}

	confidence, err := strconv.ParseFloat(strings.TrimSpace(conf), 64)
	if err != nil {
		return "", 0, fmt.Errorf("bad confidence %q", conf)
	}
	return tag, confidence, nil
}

// Fold groups consecutive tokens with the same tag into spans. A span
// boundary occurs exactly where the tag changes.
func Fold(tokens []Token) []Span {
	var spans []Span
	for _, tok := range tokens {
		if n := len(spans); n > 0 && spans[n-1].Tag == tok.Tag {
			spans[n-1].Tokens = append(spans[n-1].Tokens, tok.Text)
			continue
		}
		spans = append(spans, Span{Tag: tok.Tag, Tokens: []string{tok.Text}})
	}
	return spans
}

// GroupFields collects tokens per tag in order. Unit tokens are singularized.
func GroupFields(tokens []Token) map[string][]string {
	fields := make(map[string][]string)
	for _, tok := range tokens {
		text := tok.Text
		if tok.Tag == "unit" {
			text = units.Singularize(text)
		}
		fields[tok.Tag] = append(fields[tok.Tag], text)
	}
	return fields
}

// Assemble builds a Block from the tagged tokens of one ingredient line.
func Assemble(tokens []Token, probability float64) Block {
	spans := Fold(tokens)

	grouped := GroupFields(tokens)
	fields := make(map[string]string, len(grouped))
	for tag, words := range grouped {
		fields[tag] = SmartJoin(words)
	}

	phrases := make([]string, len(spans))
	for i, span := range spans {
		phrases[i] = strings.Join(span.Tokens, " ")
	}

	return Block{
		Fields:      fields,
		Display:     Display(spans),
		Input:       SmartJoin(phrases),
		Spans:       spans,
		Tokens:      tokens,
		Probability: probability,
	}
}
