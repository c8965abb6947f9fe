// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleBib = `% generated by a reference manager
@string{neurips = "Advances in Neural Information Processing Systems"}

@comment{ this block {nests} and is ignored }
@preamble{"\newcommand{\noopsort}[1]{}"}

@inproceedings{vaswani2017,
  title     = {Attention Is {All} You Need},
  author    = {Vaswani, Ashish and
Shazeer, Noam},
  booktitle = neurips # " 30",
  month     = dec,
  year      = 2017,
}

Questions to maintainer@example.org.

@misc(noyear,
  title = "A {Quoted} Title
 Across Lines"
)
`

func TestParse_Sample(t *testing.T) {
	entries, err := Parse(strings.NewReader(sampleBib), "refs.bib")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	v := entries[0]
	assert.Equal(t, "vaswani2017", v.Key)
	assert.Equal(t, "inproceedings", v.EntryType)
	assert.Equal(t, "Attention Is All You Need", v.Title)
	assert.Equal(t, "Vaswani, Ashish and Shazeer, Noam", v.Author)
	assert.Equal(t, "2017", v.Year)
	assert.Equal(t, "refs.bib", v.SourceFile)
	assert.Equal(t, "Advances in Neural Information Processing Systems 30", v.Fields["booktitle"])
	assert.Equal(t, "December", v.Fields["month"])
	assert.Equal(t, "Attention Is {All} You Need", v.Fields["title"])

	m := entries[1]
	assert.Equal(t, "noyear", m.Key)
	assert.Equal(t, "misc", m.EntryType)
	assert.Equal(t, "A Quoted Title Across Lines", m.Title)
	assert.Equal(t, "N/A", m.Year)
	assert.Empty(t, m.Author)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unterminated value", "@article{k,\n  title = {never closed\n", 3},
		{"missing key", "@article{, title = {T}}", 1},
		{"missing equals", "@article{k,\n  title {T}}", 2},
		{"unbalanced quote", "@article{k, title = \"open}", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src), "bad.bib")
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "bad.bib", pe.File)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	entries, err := Parse(strings.NewReader("just prose, no entries"), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "BERT: Pre-training", CleanTitle("  {BERT}: Pre-{training}\n"))
	assert.Equal(t, "", CleanTitle("{}"))
}

func writeBib(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadPath_MergesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeBib(t, dir, "a.bib", `@article{k1, title = {Old Title}}`)
	writeBib(t, dir, "b.bib", `@article{k1, title = {New Title}} @book{k2, title = {Second}}`)
	writeBib(t, dir, "sub/c.bib", `@article{broken, title = {no end`)
	writeBib(t, dir, "notes.txt", `@article{ignored, title = {Ignored}}`)

	core, logs := observer.New(zapcore.InfoLevel)
	entries, err := LoadPath(dir, zap.New(core))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "New Title", entries["k1"].Title)
	assert.Equal(t, "b.bib", entries["k1"].SourceFile)
	assert.Equal(t, "Second", entries["k2"].Title)
	assert.NotContains(t, entries, "ignored")

	assert.Equal(t, 1, logs.FilterMessage("skipping bib file").Len())
	merged := logs.FilterMessage("merged bib entries").All()
	require.Len(t, merged, 1)
	assert.EqualValues(t, 2, merged[0].ContextMap()["entries"])
}

func TestLoadPath_SingleFile(t *testing.T) {
	p := writeBib(t, t.TempDir(), "refs.bib", `@article{only, title = {Only}, year = {2020}}`)

	entries, err := LoadPath(p, nil)
	require.NoError(t, err)
	require.Contains(t, entries, "only")
	assert.Equal(t, "2020", entries["only"].Year)
}

func TestLoadPath_Missing(t *testing.T) {
	_, err := LoadPath(filepath.Join(t.TempDir(), "absent.bib"), nil)
	assert.Error(t, err)
}
