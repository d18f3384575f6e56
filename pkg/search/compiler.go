package search

import (
	"strings"
	"unicode"
)

// CompiledQuery is the result of compiling a raw query: the engine match
// expression plus the literal terms it retained, used for highlighting.
type CompiledQuery struct {
	// Match is the FTS5 expression: a conjunction of double-quoted phrases.
	Match string
	// Terms are the retained literal tokens, in input order.
	Terms []string
}

// Empty reports whether the query retained no searchable terms. Executing an
// empty query returns zero results without touching storage.
func (q CompiledQuery) Empty() bool {
	return len(q.Terms) == 0
}

// Compiler turns raw user input into an FTS5 match expression. Every token is
// wrapped as a quoted phrase, so engine operators (AND, OR, NOT, NEAR, ^, *,
// parentheses, column filters) in user input match literally instead of being
// interpreted. This is the single hand-built query string in the system.
type Compiler struct{}

// NewCompiler creates a query compiler
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile compiles a raw query. It is a single pass over the input: split on
// whitespace, drop tokens with no indexable rune, quote the rest.
func (c *Compiler) Compile(raw string) CompiledQuery {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return CompiledQuery{}
	}

	terms := make([]string, 0, len(fields))
	phrases := make([]string, 0, len(fields))
	for _, tok := range fields {
		if !indexable(tok) {
			// Punctuation-only tokens produce no index entries under the
			// unicode61 tokenizer; quoting them would either error or match
			// nothing, so they are dropped.
			continue
		}
		terms = append(terms, tok)
		phrases = append(phrases, quotePhrase(tok))
	}

	if len(terms) == 0 {
		return CompiledQuery{}
	}
	return CompiledQuery{
		Match: strings.Join(phrases, " "),
		Terms: terms,
	}
}

// CompilePrefix compiles an autocomplete prefix: every token is a quoted
// phrase and the last one carries the FTS5 prefix operator outside the
// quotes, so the operator applies without being user-controllable. When col
// is non-empty each phrase is restricted to that column; FTS5 column filters
// bind to a single phrase, so the filter is repeated per phrase.
func (c *Compiler) CompilePrefix(raw, col string) CompiledQuery {
	q := c.Compile(raw)
	if q.Empty() {
		return q
	}

	phrases := make([]string, len(q.Terms))
	for i, tok := range q.Terms {
		p := quotePhrase(tok)
		if i == len(q.Terms)-1 {
			p += "*"
		}
		if col != "" {
			p = col + ": " + p
		}
		phrases[i] = p
	}
	q.Match = strings.Join(phrases, " ")
	return q
}

// quotePhrase wraps a token as an FTS5 string literal, doubling embedded
// double quotes per the engine's escaping rule.
func quotePhrase(tok string) string {
	return `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
}

// indexable reports whether the token contains at least one rune the
// unicode61 tokenizer indexes.
func indexable(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
