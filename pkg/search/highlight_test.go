package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippet_HighlightsTerm(t *testing.T) {
	out := Snippet("Builds the product platform", []string{"product"})
	assert.Equal(t, "Builds the <mark>product</mark> platform", out)
}

func TestSnippet_CaseInsensitive(t *testing.T) {
	out := Snippet("Platform Engineering", []string{"platform"})
	assert.Equal(t, "<mark>Platform</mark> Engineering", out)
}

func TestSnippet_EscapesStoredContent(t *testing.T) {
	out := Snippet(`<script>alert("x")</script> engineering`, []string{"engineering"})
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "<mark>engineering</mark>")
}

func TestSnippet_EscapesHighlightedTermItself(t *testing.T) {
	out := Snippet("tom & jerry", []string{"&"})
	assert.Contains(t, out, "<mark>&amp;</mark>")
}

func TestSnippet_WindowsAroundFirstMatch(t *testing.T) {
	body := strings.Repeat("x", 200) + " needle " + strings.Repeat("y", 200)
	out := Snippet(body, []string{"needle"})

	assert.Contains(t, out, "<mark>needle</mark>")
	assert.True(t, strings.HasPrefix(out, "..."))
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.Less(t, len(out), 250)
}

func TestSnippet_NoMatchTruncatesFromStart(t *testing.T) {
	body := strings.Repeat("z", 300)
	out := Snippet(body, []string{"absent"})

	assert.True(t, strings.HasSuffix(out, "..."))
	assert.NotContains(t, out, "<mark>")
	assert.Less(t, len(out), 200)
}

func TestSnippet_EmptyText(t *testing.T) {
	assert.Empty(t, Snippet("", []string{"term"}))
}

func TestSnippet_RunesThatGrowWhenLowercased(t *testing.T) {
	// Ⱥ (U+023A) is 2 bytes; its lowercase ⱥ (U+2C65) is 3. Offsets found in
	// the lowercased text would overrun the original.
	assert.Equal(t, "Ⱥ <mark>ab</mark>", Snippet("Ⱥ ab", []string{"ab"}))

	out := Snippet("Ⱥrhus payroll", []string{"payroll"})
	assert.Equal(t, "Ⱥrhus <mark>payroll</mark>", out)
}

func TestSnippet_RunesThatShrinkWhenLowercased(t *testing.T) {
	// İ (U+0130) is 2 bytes but lowercases to 1-byte i
	out := Snippet("İstanbul office", []string{"office"})
	assert.Equal(t, "İstanbul <mark>office</mark>", out)
}

func TestSnippet_WindowNeverSplitsRunes(t *testing.T) {
	body := strings.Repeat("é", 100) + " needle " + strings.Repeat("ü", 100)
	out := Snippet(body, []string{"needle"})

	assert.Contains(t, out, "<mark>needle</mark>")
	assert.True(t, utf8.ValidString(out))

	out = Snippet(strings.Repeat("é", 200), []string{"absent"})
	assert.True(t, utf8.ValidString(out))
}

func TestSnippet_MultipleOccurrences(t *testing.T) {
	out := Snippet("api design and api review", []string{"api"})
	assert.Equal(t, 2, strings.Count(out, "<mark>api</mark>"))
}
