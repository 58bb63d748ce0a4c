package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-rag/internal/config"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a.pdf", "b.md"}, splitList(" a.pdf, ,b.md,"))
	assert.Nil(t, splitList(""))
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "notes.txt")
	blank := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(good, []byte("BLEU is a metric."), 0o600))
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0o600))

	docs, err := parseFiles([]string{good, blank})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.txt", docs[0].Source)

	_, err = parseFiles([]string{blank})
	assert.Error(t, err)
}

func TestAskOnce_ReturnsErrorInsteadOfExiting(t *testing.T) {
	err := askOnce(context.Background(), config.Default(), []string{filepath.Join(t.TempDir(), "missing.pdf")}, "What is BLEU?", 1)
	assert.Error(t, err)
}

func TestPrintChunks_ReturnsError(t *testing.T) {
	cfg := config.Default()
	cfg.RAG.ChunkOverlap = cfg.RAG.ChunkSize

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some text"), 0o600))
	assert.Error(t, printChunks(cfg, []string{path}))
}
