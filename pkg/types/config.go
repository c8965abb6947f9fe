// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Defaults shared by the CLI and library callers.
const (
	DefaultAcceptanceThreshold = 90.0
	DefaultPrefilterThreshold  = 70.0
	DefaultAuthorThreshold     = 80.0
	DefaultInterRequestDelay   = 1 * time.Second
	DefaultPrimaryTimeout      = 5 * time.Second
	DefaultSecondaryTimeout    = 10 * time.Second
	DefaultWorkers             = 4
	DefaultUserAgent           = "citecheck/0.1"
)

// HTTPConfig holds shared HTTP settings used by lookup providers.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is sent when no contact address is configured. Empty means
	// no User-Agent override.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// BaseURL replaces the provider's public endpoint when set.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// VerifierConfig carries the acceptance policy into the verifier and
// classifier. Nothing in the core reads process state; callers build this
// value once and pass it in.
type VerifierConfig struct {
	// AcceptanceThreshold is the title score (0-100) a candidate needs to
	// count as the same paper (default 90).
	AcceptanceThreshold float64 `json:"acceptance_threshold" yaml:"acceptance_threshold" mapstructure:"acceptance_threshold"`

	// PrefilterThreshold is the score at which a primary hit short-circuits
	// the fallback lookup (default 70).
	PrefilterThreshold float64 `json:"prefilter_threshold" yaml:"prefilter_threshold" mapstructure:"prefilter_threshold"`

	// AuthorThreshold is the partial-match score a candidate author must
	// exceed to match the recorded first author (default 80).
	AuthorThreshold float64 `json:"author_threshold" yaml:"author_threshold" mapstructure:"author_threshold"`

	// InterRequestDelay is the pause before any fallback call (default 1s).
	// A negative value disables it.
	InterRequestDelay time.Duration `json:"inter_request_delay" yaml:"inter_request_delay" mapstructure:"inter_request_delay"`

	// ContactAddress is an optional e-mail for the polite identification
	// header. Empty degrades to anonymous requests.
	ContactAddress string `json:"contact_address,omitempty" yaml:"contact_address,omitempty" mapstructure:"contact_address"`
}

// WithDefaults fills zero-valued fields with the package defaults. A
// negative InterRequestDelay is kept so the result is stable under repeated
// calls.
func (c VerifierConfig) WithDefaults() VerifierConfig {
	if c.AcceptanceThreshold <= 0 {
		c.AcceptanceThreshold = DefaultAcceptanceThreshold
	}
	if c.PrefilterThreshold <= 0 {
		c.PrefilterThreshold = DefaultPrefilterThreshold
	}
	if c.AuthorThreshold <= 0 {
		c.AuthorThreshold = DefaultAuthorThreshold
	}
	if c.InterRequestDelay == 0 {
		c.InterRequestDelay = DefaultInterRequestDelay
	}
	return c
}

// ProviderConfig holds per-provider transport settings.
type ProviderConfig struct {
	Primary   HTTPConfig `json:"primary" yaml:"primary"`
	Secondary HTTPConfig `json:"secondary" yaml:"secondary"`
}

// OutputFormat selects the report serialization.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// RunConfig holds settings for a verification run.
type RunConfig struct {
	// Workers bounds how many keys are verified concurrently (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// Quiet suppresses per-key progress lines.
	Quiet bool `json:"quiet" yaml:"quiet"`
}
