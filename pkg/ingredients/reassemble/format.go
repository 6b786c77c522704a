package reassemble

import "strings"

// SmartJoin joins words with spaces, then removes the spaces the tokenizer
// introduced around commas and parentheses.
func SmartJoin(words []string) string {
	s := strings.Join(words, " ")
	s = strings.ReplaceAll(s, " , ", ", ")
	s = strings.ReplaceAll(s, "( ", "(")
	s = strings.ReplaceAll(s, " )", ")")
	return s
}

// Display renders spans as markup, one <span class='tag'> per span:
//
//	Display([]Span{{"qty", {"1"}}, {"name", {"cat", "pie"}}})
//	// <span class='qty'>1</span><span class='name'>cat pie</span>
func Display(spans []Span) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString("<span class='")
		b.WriteString(span.Tag)
		b.WriteString("'>")
		b.WriteString(strings.Join(span.Tokens, " "))
		b.WriteString("</span>")
	}
	return b.String()
}
