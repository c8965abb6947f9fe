package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := newFakeServices(t)
	texDir, bibDir := writeInputs(t, dir, `\cite{vaswani2017, ghost}`, sampleBib)
	opts := testOptions(dir, texDir, bibDir, fs)

	var out bytes.Buffer
	assert.Error(t, runHistory(ctx, opts.DBPath, 10, "", &out), "no database yet")

	require.NoError(t, runCheck(ctx, opts, &bytes.Buffer{}, zap.NewNop()))

	require.NoError(t, runHistory(ctx, opts.DBPath, 10, "", &out))
	assert.Contains(t, out.String(), texDir)

	out.Reset()
	require.NoError(t, runHistory(ctx, opts.DBPath, 10, "unknown-run", &out))
	assert.Equal(t, "Run unknown-run recorded no issues.\n", out.String())
}

func TestRunHistory_MissingDatabase(t *testing.T) {
	err := runHistory(context.Background(), filepath.Join(t.TempDir(), "none.db"), 10, "", &bytes.Buffer{})
	assert.ErrorContains(t, err, "no run history")
}
