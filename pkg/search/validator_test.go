package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		query  string
		valid  bool
		reason ValidationReason
	}{
		{"plain term", "engineering", true, ReasonNone},
		{"multiple terms", "grace hopper", true, ReasonNone},
		{"at the length limit", strings.Repeat("a", MaxQueryLength), true, ReasonNone},
		{"over the length limit", strings.Repeat("a", MaxQueryLength+1), false, ReasonTooLong},
		{"empty", "", false, ReasonUnmatchable},
		{"whitespace only", "   \t\n", false, ReasonUnmatchable},
		{"single wildcard", "*", false, ReasonUnmatchable},
		{"hundred wildcards", strings.Repeat("*", 100), false, ReasonUnmatchable},
		{"wildcards and spaces", "*  ** *", false, ReasonUnmatchable},
		{"wildcard attached to term", "eng*", true, ReasonNone},
		{"operator-looking input", "a OR b", true, ReasonNone},
		{"unicode", "日本語", true, ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.query)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.reason, res.Reason)
			if !tt.valid {
				assert.NotEmpty(t, res.Message)
			}
		})
	}
}

func TestValidator_PathologicalInputIsFast(t *testing.T) {
	v := NewValidator()
	long := strings.Repeat(`"' OR 1=1 -- `, MaxQueryLength) // well past the limit

	start := time.Now()
	res := v.Validate(long)
	elapsed := time.Since(start)

	assert.False(t, res.Valid)
	assert.Equal(t, ReasonTooLong, res.Reason)
	assert.Less(t, elapsed, time.Second)
}
