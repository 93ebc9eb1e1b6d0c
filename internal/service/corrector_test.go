package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrector_Correct(t *testing.T) {
	c := NewCorrector(testParserConfig)

	tests := []struct {
		name      string
		input     string
		want      string
		wantFixes int
		wantFrom  string
		wantTo    string
	}{
		{
			name:      "multi-word location",
			input:     "condo in Petalng Jaya",
			want:      "condo in Petaling Jaya",
			wantFixes: 1,
			wantFrom:  "Petalng Jaya",
			wantTo:    "Petaling Jaya",
		},
		{
			name:      "single-word location",
			input:     "studio in bangsr",
			want:      "studio in Bangsar",
			wantFixes: 1,
			wantFrom:  "bangsr",
			wantTo:    "Bangsar",
		},
		{
			name:      "property type",
			input:     "apartmnet near KLCC",
			want:      "apartment near KLCC",
			wantFixes: 1,
			wantFrom:  "apartmnet",
			wantTo:    "apartment",
		},
		{
			name:  "station names are never altered",
			input: "condo near MRT Surian",
			want:  "condo near MRT Surian",
		},
		{
			name:  "known location spelled correctly",
			input: "house in Petaling Jaya",
			want:  "house in Petaling Jaya",
		},
		{
			name:  "plural type keeps spelling",
			input: "condos for rent",
			want:  "condos for rent",
		},
		{
			name:  "numbers untouched",
			input: "3 bedroom under RM3000",
			want:  "3 bedroom under RM3000",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fixes := c.Correct(tt.input)
			assert.Equal(t, tt.want, got)
			require.Len(t, fixes, tt.wantFixes)
			if tt.wantFixes > 0 {
				assert.Equal(t, tt.wantFrom, fixes[0].From)
				assert.Equal(t, tt.wantTo, fixes[0].To)
				assert.Greater(t, fixes[0].Score, 0.6)
				assert.Less(t, fixes[0].Score, 1.0)
			}
		})
	}
}

func TestCorrector_Idempotent(t *testing.T) {
	c := NewCorrector(testParserConfig)

	for _, q := range []string{"condo in Petalng Jaya", "studio in bangsr", "apartmnet near KLCC"} {
		once, _ := c.Correct(q)
		twice, fixes := c.Correct(once)
		assert.Equal(t, once, twice, q)
		assert.Empty(t, fixes, q)
	}
}

func TestCorrector_PunctuationPreserved(t *testing.T) {
	c := NewCorrector(testParserConfig)

	got, fixes := c.Correct("studio, bangsr.")
	assert.Equal(t, "studio, Bangsar.", got)
	require.Len(t, fixes, 1)
	assert.Equal(t, "bangsr", fixes[0].From)
}

func TestSplitToken(t *testing.T) {
	tok := splitToken("(bangsr),")
	assert.Equal(t, "(", tok.lead)
	assert.Equal(t, "bangsr", tok.core)
	assert.Equal(t, "),", tok.trail)

	tok = splitToken("...")
	assert.Equal(t, "", tok.core)
}
