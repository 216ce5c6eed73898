// Package highlight splits buffer text into colored spans per line.
package highlight

import (
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Kind is the syntax category of a span.
type Kind uint8

const (
	KindText Kind = iota
	KindKeyword
	KindName
	KindString
	KindNumber
	KindComment
	KindOperator
	KindPunctuation
)

var kindNames = [...]string{
	KindText:        "text",
	KindKeyword:     "keyword",
	KindName:        "name",
	KindString:      "string",
	KindNumber:      "number",
	KindComment:     "comment",
	KindOperator:    "operator",
	KindPunctuation: "punctuation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Span covers runes [Start, End) of one line.
type Span struct {
	Start, End int
	Kind       Kind
}

// Spans tokenizes text with the lexer for language and returns the spans
// of every line. Line i of the result matches line i of text. Unknown
// languages produce plain text spans.
func Spans(text, language string) [][]Span {
	lines := make([][]Span, strings.Count(text, "\n")+1)

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return plain(text, lines)
	}

	row, col := 0, 0
	for _, tok := range it.Tokens() {
		kind := kindOf(tok.Type)
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				row++
				col = 0
			}
			if row >= len(lines) {
				return lines
			}
			n := utf8.RuneCountInString(part)
			if n == 0 {
				continue
			}
			lines[row] = appendSpan(lines[row], Span{Start: col, End: col + n, Kind: kind})
			col += n
		}
	}
	return lines
}

// appendSpan merges s into the previous span when they touch and share a
// kind.
func appendSpan(spans []Span, s Span) []Span {
	if n := len(spans); n > 0 && spans[n-1].Kind == s.Kind && spans[n-1].End == s.Start {
		spans[n-1].End = s.End
		return spans
	}
	return append(spans, s)
}

func plain(text string, lines [][]Span) [][]Span {
	for i, line := range strings.Split(text, "\n") {
		if n := utf8.RuneCountInString(line); n > 0 {
			lines[i] = []Span{{Start: 0, End: n, Kind: KindText}}
		}
	}
	return lines
}

func kindOf(t chroma.TokenType) Kind {
	switch {
	case t.InCategory(chroma.Keyword):
		return KindKeyword
	case t.InSubCategory(chroma.LiteralString):
		return KindString
	case t.InSubCategory(chroma.LiteralNumber):
		return KindNumber
	case t.InCategory(chroma.Comment):
		return KindComment
	case t.InCategory(chroma.Operator):
		return KindOperator
	case t.InCategory(chroma.Punctuation):
		return KindPunctuation
	case t.InCategory(chroma.Name):
		return KindName
	default:
		return KindText
	}
}
