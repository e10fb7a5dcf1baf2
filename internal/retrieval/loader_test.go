package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCorpus_FiltersByExtension(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.md":         "alpha",
		"b/c.TXT":      "charlie",
		"b/d.markdown": "delta",
		"b/e.png":      "echo",
		"f.go":         "package f",
		"g/flow.xml":   "<flow/>",
	})

	docs, err := LoadCorpus(context.Background(), dir, logr.Discard())
	require.NoError(t, err)

	var sources []string
	for _, d := range docs {
		rel, err := filepath.Rel(dir, d.Source)
		require.NoError(t, err)
		sources = append(sources, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"a.md", "b/c.TXT", "b/d.markdown", "g/flow.xml"}, sources)
}

func TestLoadCorpus_MissingDirIsNotAnError(t *testing.T) {
	docs, err := LoadCorpus(context.Background(), filepath.Join(t.TempDir(), "absent"), logr.Discard())
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = LoadCorpus(context.Background(), "", logr.Discard())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadCorpus_FileInsteadOfDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "file.md")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	_, err := LoadCorpus(context.Background(), p, logr.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestLoadCorpus_SkipsUnreadablePDF(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"broken.pdf": "this is not a pdf",
		"ok.md":      "fine",
	})

	docs, err := LoadCorpus(context.Background(), dir, logr.Discard())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fine", docs[0].Text)
}

func TestLoadCorpus_LogsDocumentsWithoutText(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"blank.md": "  \n\n",
		"full.md":  "adapter notes",
	})

	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	docs, err := LoadCorpus(context.Background(), dir, log)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "adapter notes", docs[0].Text)

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "skipping document without text")
	assert.Contains(t, lines[0], "blank.md")
}
