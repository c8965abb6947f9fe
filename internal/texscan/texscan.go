// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package texscan collects citation keys from LaTeX manuscript sources.
package texscan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// citeRe matches \cite, \citep, \citet*, \citeauthor and friends, with up
// to two optional [..] arguments, capturing the brace-delimited key list.
var citeRe = regexp.MustCompile(`\\cite[a-zA-Z]*\*?(?:\[[^\]]*\]){0,2}\{([^{}]+)\}`)

// ScanText returns the sorted, deduplicated citation keys in a LaTeX
// source. Comments (an unescaped % to end of line) are stripped first.
func ScanText(src string) []string {
	set := make(map[string]bool)
	collect(stripComments(src), set)
	return sortedKeys(set)
}

// ScanPath scans a single .tex file, or every *.tex file under a directory
// recursively. Files that cannot be read are logged and skipped.
func ScanPath(path string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	files, err := texFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Info("scanning tex sources", zap.String("path", path), zap.Int("files", len(files)))

	set := make(map[string]bool)
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			logger.Error("reading tex file", zap.String("file", f), zap.Error(err))
			continue
		}
		collect(stripComments(string(data)), set)
	}

	keys := sortedKeys(set)
	logger.Info("found citation keys", zap.Int("unique_keys", len(keys)))
	return keys, nil
}

func texFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("tex input %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".tex") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	return files, nil
}

func collect(src string, set map[string]bool) {
	for _, m := range citeRe.FindAllStringSubmatch(src, -1) {
		for _, k := range strings.Split(m[1], ",") {
			if k = strings.TrimSpace(k); k != "" {
				set[k] = true
			}
		}
	}
}

// stripComments drops everything from an unescaped % to the end of its
// line. A % preceded by a backslash is a literal percent sign.
func stripComments(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		for j := 0; j < len(line); j++ {
			if line[j] == '%' && (j == 0 || line[j-1] != '\\') {
				lines[i] = line[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
