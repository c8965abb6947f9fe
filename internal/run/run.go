// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package run drives verification across every citation key of a
// manuscript and assembles the ordered report.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/citecheck/internal/verify"
	"github.com/pdiddy/citecheck/pkg/types"
)

// Empty-input errors stop a run before any verification.
var (
	ErrNoKeys    = errors.New("no citation keys found")
	ErrNoEntries = errors.New("no BibTeX entries found")
)

// Checker verifies and classifies one key. *verify.Verifier implements it.
// An error means the key was not verified and aborts the run.
type Checker interface {
	Check(ctx context.Context, key string, entry *types.BibEntry) (types.Outcome, error)
}

var _ Checker = (*verify.Verifier)(nil)

// Result is the product of a run: every outcome in key order and the
// issues subset in the same order.
type Result struct {
	RunID    string          `json:"run_id" yaml:"run_id"`
	Started  time.Time       `json:"started" yaml:"started"`
	Finished time.Time       `json:"finished" yaml:"finished"`
	Outcomes []types.Outcome `json:"outcomes" yaml:"outcomes"`
	Issues   []types.Issue   `json:"issues" yaml:"issues"`
}

// Counts tallies outcomes per status.
func (r *Result) Counts() map[types.Status]int {
	counts := make(map[types.Status]int)
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// HasIssues reports whether any outcome is not verified.
func (r *Result) HasIssues() bool {
	return len(r.Issues) > 0
}

// Run verifies every key against bib. Keys are deduplicated and sorted, so
// the report order is deterministic regardless of worker scheduling. Keys
// without an entry are classified as missing without reaching the checker's
// providers. Workers bound concurrency; each writes only its own slot.
func Run(ctx context.Context, keys []string, bib map[string]*types.BibEntry, c Checker, cfg types.RunConfig, w io.Writer) (*Result, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	if len(bib) == 0 {
		return nil, ErrNoEntries
	}
	if w == nil {
		w = io.Discard
	}

	sorted := sortedUnique(keys)
	workers := cfg.Workers
	if workers <= 0 {
		workers = types.DefaultWorkers
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Started:  time.Now().UTC(),
		Outcomes: make([]types.Outcome, len(sorted)),
	}

	var (
		mu   sync.Mutex
		done int
	)
	progress := func(o types.Outcome) {
		if cfg.Quiet {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		fmt.Fprintf(w, "[%d/%d] Checked: %s (%s)\n", done, len(sorted), o.Key, o.Status)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, key := range sorted {
		entry, ok := bib[key]
		if !ok {
			res.Outcomes[i] = verify.Classify(key, nil, nil, types.VerifierConfig{})
			progress(res.Outcomes[i])
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := c.Check(gctx, key, entry)
			if err != nil {
				return err
			}
			res.Outcomes[i] = out
			progress(out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("verification interrupted: %w", err)
	}

	res.Finished = time.Now().UTC()
	for _, o := range res.Outcomes {
		if o.Issue != nil {
			res.Issues = append(res.Issues, *o.Issue)
		}
	}
	return res, nil
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
