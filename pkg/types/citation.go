// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citecheck pipeline:
// bibliography entries, provider candidates, and per-key outcomes.
package types

// Status is the terminal classification of a citation key.
type Status string

const (
	StatusVerified       Status = "Verified"
	StatusMissingInBib   Status = "Missing in Bib"
	StatusNotFound       Status = "Not Found"
	StatusTitleMismatch  Status = "Title Mismatch"
	StatusAuthorMismatch Status = "Author Mismatch"
)

// IsIssue reports whether the status belongs in the issues report.
func (s Status) IsIssue() bool {
	return s != StatusVerified
}

// Risk grades how likely an issue is a hallucinated citation.
type Risk string

const (
	RiskNone   Risk = ""
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

// BibEntry is a bibliography record as recorded in a .bib file.
type BibEntry struct {
	// Key is the citation key (the BibTeX entry ID).
	Key string `json:"key" yaml:"key"`

	// Title has braces and newlines stripped and is whitespace-trimmed.
	Title string `json:"title" yaml:"title"`

	// Author is the raw author field with newlines replaced by spaces.
	Author string `json:"author" yaml:"author"`

	// Year is the year field, or "N/A" when absent.
	Year string `json:"year" yaml:"year"`

	// SourceFile is the base name of the .bib file the entry was loaded from.
	SourceFile string `json:"source_file" yaml:"source_file"`

	// EntryType is the lowercased BibTeX entry type (e.g. "article").
	EntryType string `json:"entry_type,omitempty" yaml:"entry_type,omitempty"`

	// Fields holds every field of the entry, keyed by lowercased field name.
	Fields map[string]string `json:"raw_entry,omitempty" yaml:"raw_entry,omitempty"`
}

// CandidateRecord is the top hit returned by a lookup provider.
type CandidateRecord struct {
	// Source names the provider that answered ("DBLP", "OpenAlex").
	Source string `json:"source" yaml:"source"`

	Title string `json:"title" yaml:"title"`

	// Year is the publication year as a string, or "N/A".
	Year string `json:"year" yaml:"year"`

	// Authors lists display names in provider order.
	Authors []string `json:"authors" yaml:"authors"`

	// URL is the provenance locator (DBLP record URL or DOI).
	URL string `json:"url" yaml:"url"`
}

// Issue is one row of the hallucination report. Fields beyond Key, Reason
// and Risk are set only for the statuses that produce them.
type Issue struct {
	Key             string   `json:"key" yaml:"key"`
	Status          Status   `json:"status" yaml:"status"`
	BibTitle        string   `json:"bib_title,omitempty" yaml:"bib_title,omitempty"`
	FoundTitle      string   `json:"found_title,omitempty" yaml:"found_title,omitempty"`
	SimilarityScore *float64 `json:"similarity_score,omitempty" yaml:"similarity_score,omitempty"`
	Source          string   `json:"source,omitempty" yaml:"source,omitempty"`
	BibAuthor       string   `json:"bib_author,omitempty" yaml:"bib_author,omitempty"`
	FoundAuthors    []string `json:"found_authors,omitempty" yaml:"found_authors,omitempty"`
	Reason          string   `json:"reason" yaml:"reason"`
	Risk            Risk     `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
}

// Outcome is the final, immutable result for one citation key.
type Outcome struct {
	Key    string           `json:"key" yaml:"key"`
	Status Status           `json:"status" yaml:"status"`
	Bib    *BibEntry        `json:"bib_metadata" yaml:"bib_metadata"`
	Result *CandidateRecord `json:"verification_result" yaml:"verification_result"`

	// Issue is nil for verified outcomes.
	Issue *Issue `json:"-" yaml:"-"`
}
