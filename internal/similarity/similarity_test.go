// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "abc", "abc", 100},
		{"case-insensitive", "Attention Is All You Need", "attention is all you need", 100},
		{"both empty", "", "", 100},
		{"one empty", "abc", "", 0},
		{"disjoint", "abc", "xyz", 0},
		// LCS("abcd","abed") = 3 -> 2*3/8.
		{"one substitution", "abcd", "abed", 75},
		// LCS = 25 of 25+29 runes.
		{"inserted word", "Attention Is All You Need", "Attention Is NOT All You Need", 100 * 50.0 / 54.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Attention Is All You Need", "Attention Is Not All You Need: Pure Attention Loses Rank"},
		{"BERT", "Bidirectional Encoder Representations"},
		{"", "nonempty"},
		{"Über Graphen", "uber graphen"},
		{"kitten", "sitting"},
	}
	for _, p := range pairs {
		assert.Equal(t, Ratio(p[0], p[1]), Ratio(p[1], p[0]), "Ratio(%q, %q)", p[0], p[1])
	}
}

func TestRatio_Unicode(t *testing.T) {
	// Each rune counts once regardless of its UTF-8 width.
	assert.InDelta(t, 100*6.0/8.0, Ratio("café", "cafe"), 1e-9)
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"surname inside full name", "Vaswani", "Ashish Vaswani", 100},
		{"argument order irrelevant", "Ashish Vaswani", "vaswani", 100},
		{"both empty", "", "", 100},
		{"empty needle", "", "Vaswani", 0},
		{"exact", "Smith", "smith", 100},
		// Best window "vasw" for needle "vasx": LCS 3 -> 2*3/8.
		{"near miss", "vasx", "ashish vaswani", 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PartialRatio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestPartialRatio_EdgeWindows(t *testing.T) {
	// "nian" overlaps the end of "ashish vaswani" only partially; the
	// suffix window "ni" gives 2*2/6.
	got := PartialRatio("nian", "ashish vaswani")
	assert.GreaterOrEqual(t, got, 100*4.0/6.0-1e-9)
}

func TestPartialRatio_UnrelatedNames(t *testing.T) {
	assert.LessOrEqual(t, PartialRatio("Smith", "Ashish Vaswani"), 80.0)
	assert.LessOrEqual(t, PartialRatio("Smith", "Noam Shazeer"), 80.0)
}
