// Package features derives per-token features and writes the tab-separated
// format the sequence tagger reads.
package features

import (
	"io"
	"strconv"
	"strings"
)

// lengthBuckets are the upper bounds used for the L<n> feature.
var lengthBuckets = []int{4, 8, 12, 16, 20}

// Features returns the feature columns for the token at index (1-based):
// I<index>, L<bucket>, YesCAP/NoCAP, YesPAREN/NoPAREN.
func Features(token string, index int, tokens []string) []string {
	return []string{
		"I" + strconv.Itoa(index),
		"L" + LengthGroup(len(tokens)),
		flag(IsCapitalized(token)) + "CAP",
		flag(InsideParenthesis(token, tokens)) + "PAREN",
	}
}

func flag(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// LengthGroup buckets the token count of a line into 4, 8, 12, 16, 20 or X.
func LengthGroup(n int) string {
	for _, bound := range lengthBuckets {
		if n < bound {
			return strconv.Itoa(bound)
		}
	}
	return "X"
}

// IsCapitalized reports whether the token starts with an ASCII uppercase
// letter. Trained models only ever saw A-Z as capitals.
func IsCapitalized(token string) bool {
	return token != "" && token[0] >= 'A' && token[0] <= 'Z'
}

// InsideParenthesis reports whether the token is a parenthesis, or appears
// between an opening and a closing parenthesis of the space-joined line.
func InsideParenthesis(token string, tokens []string) bool {
	if token == "(" || token == ")" {
		return true
	}
	line := strings.Join(tokens, " ")

	open := strings.Index(line, "(")
	if open < 0 {
		return false
	}
	at := strings.Index(line[open+1:], token)
	if at < 0 {
		return false
	}
	end := open + 1 + at + len(token)
	return strings.LastIndex(line, ")") >= end
}

// Line renders one export line: the token followed by its features.
func Line(token string, index int, tokens []string) string {
	return strings.Join(append([]string{token}, Features(token, index, tokens)...), "\t")
}

// Block renders the export text for one ingredient line, terminated by a
// blank line. An empty token list yields an empty string.
func Block(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for i, token := range tokens {
		b.WriteString(Line(token, i+1, tokens))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}

// Export writes the export text for several lines of tokens, one block each.
func Export(w io.Writer, lines [][]string) error {
	for _, tokens := range lines {
		if _, err := io.WriteString(w, Block(tokens)); err != nil {
			return err
		}
	}
	return nil
}
