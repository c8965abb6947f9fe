// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores lexical closeness of two strings on a 0-100
// scale. Ratio is the normalized insert/delete edit similarity
// 2*LCS/(len(a)+len(b)); PartialRatio is the best Ratio of the shorter
// string against any equally long window of the longer one. Both compare
// case-insensitively and operate on runes.
package similarity

import "strings"

// Ratio returns the case-insensitive normalized edit similarity of a and b.
// Two empty strings score 100. Ratio is symmetric.
func Ratio(a, b string) float64 {
	return ratio([]rune(strings.ToLower(a)), []rune(strings.ToLower(b)))
}

// PartialRatio returns the highest Ratio between the shorter of a and b
// and any substring of the longer one with the same length. Windows that
// run off either edge of the longer string are also considered, so a
// needle overlapping the start or end still scores.
func PartialRatio(a, b string) float64 {
	s1 := []rune(strings.ToLower(a))
	s2 := []rune(strings.ToLower(b))
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}
	if len(s1) == 0 {
		if len(s2) == 0 {
			return 100
		}
		return 0
	}

	m, n := len(s1), len(s2)
	best := 0.0
	consider := func(window []rune) bool {
		if r := ratio(s1, window); r > best {
			best = r
		}
		return best >= 100
	}

	for i := 1; i < m; i++ {
		if consider(s2[:i]) {
			return best
		}
	}
	for i := 0; i+m <= n; i++ {
		if consider(s2[i : i+m]) {
			return best
		}
	}
	for i := n - m + 1; i < n; i++ {
		if consider(s2[i:]) {
			return best
		}
	}
	return best
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcs(a, b)) / float64(total)
}

// lcs returns the length of the longest common subsequence of a and b
// using two rolling rows.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
