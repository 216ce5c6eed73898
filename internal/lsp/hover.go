package lsp

import (
	"strings"

	"github.com/tidwall/gjson"
)

// HoverText extracts plain text from a textDocument/hover result.
//
// The contents may be a MarkupContent object, a single MarkedString
// (a string or a {language, value} object) or an array of MarkedStrings,
// which are joined with newlines. An empty result or the unit text "()"
// reports no content.
func HoverText(result gjson.Result) (string, bool) {
	if !result.IsObject() {
		return "", false
	}

	contents := result.Get("contents")
	var text string
	switch {
	case contents.IsArray():
		parts := make([]string, 0, len(contents.Array()))
		for _, part := range contents.Array() {
			parts = append(parts, markedString(part))
		}
		text = strings.Join(parts, "\n")
	default:
		text = markedString(contents)
	}

	if text == "" || text == "()" {
		return "", false
	}
	return text, true
}

func markedString(v gjson.Result) string {
	if v.IsObject() {
		return v.Get("value").String()
	}
	if v.Type == gjson.String {
		return v.String()
	}
	return ""
}
