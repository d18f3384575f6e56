package search

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// snippetRadius is the number of bytes kept on each side of the first match
const snippetRadius = 60

// foldedText pairs a lowercased copy of a string with a map from byte offsets
// in the copy back to byte offsets in the original. Lowercasing can change a
// rune's encoded width (U+0130 shrinks, U+023A grows), so an index found in
// the folded copy must never be used to slice the original directly.
type foldedText struct {
	lower string
	back  []int
}

func fold(text string) foldedText {
	var b strings.Builder
	b.Grow(len(text))
	back := make([]int, 0, len(text)+1)
	for i, r := range text {
		lr := unicode.ToLower(r)
		for j := 0; j < utf8.RuneLen(lr); j++ {
			back = append(back, i)
		}
		b.WriteRune(lr)
	}
	back = append(back, len(text))
	return foldedText{lower: b.String(), back: back}
}

// Snippet builds a highlighted excerpt of text around the first occurrence of
// any term. Stored content is HTML-escaped before the <mark> tags are
// inserted, so document text can never smuggle markup into a response.
func Snippet(text string, terms []string) string {
	if text == "" {
		return ""
	}

	f := fold(text)
	first := -1
	for _, term := range terms {
		if idx := strings.Index(f.lower, strings.ToLower(term)); idx >= 0 && (first < 0 || idx < first) {
			first = idx
		}
	}

	start, end := 0, len(text)
	prefix, suffix := "", ""
	if first >= 0 {
		origFirst := f.back[first]
		if origFirst > snippetRadius {
			start = runeStart(text, origFirst-snippetRadius)
			prefix = "..."
		}
		if end > origFirst+snippetRadius {
			end = runeStart(text, origFirst+snippetRadius)
			suffix = "..."
		}
	} else if end > 2*snippetRadius {
		end = runeStart(text, 2*snippetRadius)
		suffix = "..."
	}

	window := text[start:end]
	return prefix + highlight(window, terms) + suffix
}

// runeStart walks i back to the nearest rune boundary so the window never
// splits a multi-byte rune.
func runeStart(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// highlight escapes the window and wraps each term occurrence in <mark>.
// Escaping happens per segment so the tags themselves survive. Matching runs
// on the folded copy; slicing runs on the window's own offsets.
func highlight(window string, terms []string) string {
	f := fold(window)

	var b strings.Builder
	pos := 0
	for pos < len(f.lower) {
		matchIdx, matchLen := -1, 0
		for _, term := range terms {
			lowered := strings.ToLower(term)
			if lowered == "" {
				continue
			}
			idx := strings.Index(f.lower[pos:], lowered)
			if idx < 0 {
				continue
			}
			if matchIdx < 0 || pos+idx < matchIdx || (pos+idx == matchIdx && len(lowered) > matchLen) {
				matchIdx = pos + idx
				matchLen = len(lowered)
			}
		}
		if matchIdx < 0 {
			b.WriteString(html.EscapeString(window[f.back[pos]:]))
			break
		}

		start, end := f.back[matchIdx], f.back[matchIdx+matchLen]
		b.WriteString(html.EscapeString(window[f.back[pos]:start]))
		b.WriteString("<mark>")
		b.WriteString(html.EscapeString(window[start:end]))
		b.WriteString("</mark>")
		pos = matchIdx + matchLen
	}
	return b.String()
}
