// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify resolves a bibliography title against the provider chain
// and classifies the outcome for one citation key.
//
// Verifier owns the fallback policy: the primary provider is asked first
// and its hit is kept when the title score reaches the prefilter
// threshold; otherwise, after the inter-request delay, the secondary
// provider's answer is returned whatever it is. Classify then applies the
// stricter acceptance threshold and the first-author check.
package verify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/citecheck/internal/provider"
	"github.com/pdiddy/citecheck/internal/similarity"
	"github.com/pdiddy/citecheck/pkg/types"
)

// Verifier runs the two-stage provider lookup for a title.
type Verifier struct {
	primary   provider.Provider
	secondary provider.Provider
	cfg       types.VerifierConfig
	logger    *zap.Logger

	// sleep waits out the inter-request delay. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewVerifier wires a primary and secondary provider under cfg. Zero
// fields of cfg take the package defaults; a nil logger discards output.
func NewVerifier(primary, secondary provider.Provider, cfg types.VerifierConfig, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		primary:   primary,
		secondary: secondary,
		cfg:       cfg.WithDefaults(),
		logger:    logger,
		sleep:     sleepCtx,
	}
}

// Config returns the effective configuration.
func (v *Verifier) Config() types.VerifierConfig {
	return v.cfg
}

// Verify returns the best candidate record for title, or nil when neither
// provider produced one. Provider failures are logged here and count as
// no candidate. A lookup cut short by ctx returns ctx's error instead, so
// an interrupted key is never mistaken for a missing paper.
func (v *Verifier) Verify(ctx context.Context, title string) (*types.CandidateRecord, error) {
	rec, err := v.lookup(ctx, v.primary, title)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		score := similarity.Ratio(title, rec.Title)
		if score >= v.cfg.PrefilterThreshold {
			return rec, nil
		}
		v.logger.Info("primary match low confidence, falling back",
			zap.String("provider", v.primary.Name()),
			zap.String("title", title),
			zap.String("found_title", rec.Title),
			zap.Float64("score", score))
	}

	if v.secondary == nil {
		return nil, nil
	}
	if err := v.sleep(ctx, v.cfg.InterRequestDelay); err != nil {
		return nil, fmt.Errorf("fallback to %s: %w", v.secondary.Name(), err)
	}
	return v.lookup(ctx, v.secondary, title)
}

// Check verifies entry's title and classifies the candidate. A nil entry
// is classified as missing without any provider call. The error is non-nil
// only when ctx ended before the key could be verified.
func (v *Verifier) Check(ctx context.Context, key string, entry *types.BibEntry) (types.Outcome, error) {
	if entry == nil {
		return Classify(key, nil, nil, v.cfg), nil
	}
	rec, err := v.Verify(ctx, entry.Title)
	if err != nil {
		return types.Outcome{}, fmt.Errorf("checking %s: %w", key, err)
	}
	return Classify(key, entry, rec, v.cfg), nil
}

func (v *Verifier) lookup(ctx context.Context, p provider.Provider, title string) (*types.CandidateRecord, error) {
	if p == nil {
		return nil, nil
	}
	l := p.Search(ctx, title)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s lookup: %w", p.Name(), err)
	}
	if l.Unavailable() {
		v.logger.Warn("lookup failed",
			zap.String("provider", p.Name()),
			zap.String("title", title),
			zap.Error(l.Err))
		return nil, nil
	}
	return l.Record, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
