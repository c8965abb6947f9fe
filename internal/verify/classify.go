// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"strings"

	"github.com/pdiddy/citecheck/internal/similarity"
	"github.com/pdiddy/citecheck/pkg/types"
)

// Issue reasons as they appear in the hallucination report.
const (
	ReasonMissingInBib   = "Citation key found in TeX but missing in .bib files"
	ReasonNotFound       = "Paper not found in DBLP or OpenAlex"
	ReasonTitleMismatch  = "Title similarity below threshold"
	ReasonAuthorMismatch = "First author mismatch"
)

// Classify maps a recorded entry and the verifier's candidate to the
// terminal outcome for key. States are checked in priority order: missing
// entry, no candidate, title below cfg.AcceptanceThreshold, first author
// unmatched, verified.
func Classify(key string, entry *types.BibEntry, cand *types.CandidateRecord, cfg types.VerifierConfig) types.Outcome {
	cfg = cfg.WithDefaults()
	out := types.Outcome{Key: key, Bib: entry, Result: cand}

	switch {
	case entry == nil:
		out.Status = types.StatusMissingInBib
		out.Issue = &types.Issue{
			Key:    key,
			Status: out.Status,
			Reason: ReasonMissingInBib,
		}
		return out

	case cand == nil:
		out.Status = types.StatusNotFound
		out.Issue = &types.Issue{
			Key:      key,
			Status:   out.Status,
			BibTitle: entry.Title,
			Reason:   ReasonNotFound,
			Risk:     types.RiskHigh,
		}
		return out
	}

	score := similarity.Ratio(entry.Title, cand.Title)
	if score < cfg.AcceptanceThreshold {
		out.Status = types.StatusTitleMismatch
		out.Issue = &types.Issue{
			Key:             key,
			Status:          out.Status,
			BibTitle:        entry.Title,
			FoundTitle:      cand.Title,
			SimilarityScore: &score,
			Source:          cand.Source,
			Reason:          ReasonTitleMismatch,
			Risk:            types.RiskMedium,
		}
		return out
	}

	if !AuthorMatches(FirstAuthor(entry.Author), cand.Authors, cfg.AuthorThreshold) {
		out.Status = types.StatusAuthorMismatch
		out.Issue = &types.Issue{
			Key:          key,
			Status:       out.Status,
			BibAuthor:    entry.Author,
			FoundAuthors: cand.Authors,
			Source:       cand.Source,
			Reason:       ReasonAuthorMismatch,
			Risk:         types.RiskMedium,
		}
		return out
	}

	out.Status = types.StatusVerified
	return out
}

// FirstAuthor returns the leading token of a BibTeX author field: the text
// before the first comma, then before the first " and ", trimmed.
// "Vaswani, Ashish and Shazeer, Noam" yields "Vaswani"; "Ashish Vaswani and
// Noam Shazeer" yields "Ashish Vaswani".
func FirstAuthor(author string) string {
	first, _, _ := strings.Cut(author, ",")
	first, _, _ = strings.Cut(first, " and ")
	return strings.TrimSpace(first)
}

// AuthorMatches reports whether first partially matches any candidate
// author with a score above threshold. Position in the candidate list is
// ignored.
func AuthorMatches(first string, authors []string, threshold float64) bool {
	for _, a := range authors {
		if similarity.PartialRatio(first, a) > threshold {
			return true
		}
	}
	return false
}
