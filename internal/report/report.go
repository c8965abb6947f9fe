// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes verification results: the full citation list and
// the hallucination report as JSON or YAML files, a terminal summary, and
// a SQLite run history.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citecheck/internal/run"
	"github.com/pdiddy/citecheck/pkg/types"
)

// Report file base names, without extension.
const (
	allCitationsBase = "all_citations"
	issuesBase       = "hallucination_report"
)

// Paths records where a report was written. Issues is empty when the run
// found no issues.
type Paths struct {
	All    string
	Issues string
}

type encodeFunc func(w io.Writer, v any) error

// Write serializes res into dir in the given format.
func Write(dir string, format types.OutputFormat, res *run.Result) (Paths, error) {
	switch format {
	case types.FormatJSON, "":
		return WriteJSON(dir, res)
	case types.FormatYAML:
		return WriteYAML(dir, res)
	default:
		return Paths{}, fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteJSON writes all_citations.json and, when the run found issues,
// hallucination_report.json. A report left from an earlier run with issues
// is removed when this run has none.
func WriteJSON(dir string, res *run.Result) (Paths, error) {
	return write(dir, ".json", encodeJSON, res)
}

// WriteYAML is WriteJSON with YAML files.
func WriteYAML(dir string, res *run.Result) (Paths, error) {
	return write(dir, ".yaml", encodeYAML, res)
}

func write(dir, ext string, enc encodeFunc, res *run.Result) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("creating output directory: %w", err)
	}

	paths := Paths{All: filepath.Join(dir, allCitationsBase+ext)}
	outcomes := res.Outcomes
	if outcomes == nil {
		outcomes = []types.Outcome{}
	}
	if err := writeFile(paths.All, enc, outcomes); err != nil {
		return Paths{}, err
	}

	issuesPath := filepath.Join(dir, issuesBase+ext)
	if !res.HasIssues() {
		if err := os.Remove(issuesPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Paths{}, fmt.Errorf("removing stale %s: %w", issuesPath, err)
		}
		return paths, nil
	}
	if err := writeFile(issuesPath, enc, res.Issues); err != nil {
		return Paths{}, err
	}
	paths.Issues = issuesPath
	return paths, nil
}

func writeFile(path string, enc encodeFunc, v any) error {
	var buf bytes.Buffer
	if err := enc(&buf, v); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
