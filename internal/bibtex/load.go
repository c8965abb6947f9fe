// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/citecheck/pkg/types"
)

// LoadPath reads a single .bib file, or every *.bib file under a directory
// recursively, and merges the entries by key. Files are read in lexical
// path order and a later definition of a key replaces an earlier one.
// A file that cannot be read or parsed is logged and skipped; the
// remaining files still load.
func LoadPath(path string, logger *zap.Logger) (map[string]*types.BibEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	files, err := bibFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Info("parsing bib files", zap.String("path", path), zap.Int("files", len(files)))

	merged := make(map[string]*types.BibEntry)
	for _, f := range files {
		entries, err := loadFile(f)
		if err != nil {
			logger.Error("skipping bib file", zap.String("file", f), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if prev, ok := merged[e.Key]; ok {
				logger.Debug("duplicate bib key replaced",
					zap.String("key", e.Key),
					zap.String("previous", prev.SourceFile),
					zap.String("current", e.SourceFile))
			}
			merged[e.Key] = e
		}
	}

	logger.Info("merged bib entries", zap.Int("entries", len(merged)))
	return merged, nil
}

func loadFile(path string) ([]*types.BibEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, filepath.Base(path))
}

func bibFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("bib input %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".bib") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}
