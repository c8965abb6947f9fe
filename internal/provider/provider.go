// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider resolves a paper title to the top-ranked bibliographic
// record of an external scholarly search service. DBLP is the primary
// provider (computer science, high precision) and OpenAlex the secondary
// (multi-domain coverage).
//
// Providers never return raw transport errors to their callers. Every
// Search yields a Lookup: a record, no hit, or an ErrUnavailable-wrapped
// failure the caller logs and treats as no hit.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/citecheck/pkg/types"
)

// ErrUnavailable marks a lookup that failed on the provider side:
// transport error, non-200 status, or an undecodable body.
var ErrUnavailable = errors.New("provider unavailable")

// Provider searches a single bibliographic service by title.
type Provider interface {
	Name() string
	Search(ctx context.Context, title string) Lookup
}

// Lookup is the explicit result of one provider call.
type Lookup struct {
	// Record is the top hit, or nil when there was none.
	Record *types.CandidateRecord

	// Err is non-nil when the provider could not be queried. It always
	// wraps ErrUnavailable.
	Err error
}

// Found reports whether the lookup produced a candidate.
func (l Lookup) Found() bool {
	return l.Err == nil && l.Record != nil
}

// Unavailable reports whether the provider failed.
func (l Lookup) Unavailable() bool {
	return l.Err != nil
}

func unavailable(provider string, err error) Lookup {
	return Lookup{Err: fmt.Errorf("%s: %w: %w", provider, ErrUnavailable, err)}
}

func hit(rec *types.CandidateRecord) Lookup {
	return Lookup{Record: rec}
}

// yearString renders a numeric publication year, or "N/A" when unknown.
func yearString(year int) string {
	if year <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", year)
}
