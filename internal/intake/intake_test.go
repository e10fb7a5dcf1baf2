package intake

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	files := []File{
		{Name: "a.xml", Content: "<flow name=\"a\"/>"},
		{Name: "b.xml", Content: "<flow name=\"b\"/>"},
	}

	tests := []struct {
		name  string
		files []File
		prefs Preferences
		want  string
	}{
		{
			name:  "single",
			files: files[:1],
			want:  "XML Content:\n<flow name=\"a\"/>",
		},
		{
			name:  "joined",
			files: files,
			want:  "XML Content:\n<flow name=\"a\"/>\n---\n<flow name=\"b\"/>",
		},
		{
			name:  "preferences",
			files: files[:1],
			prefs: Preferences{Granularity: "Balanced", FocusAreas: []string{"Data Structures", "Business Logic"}},
			want:  "XML Content:\n<flow name=\"a\"/>\nPreferences: Granularity=Balanced, Focus Areas=Data Structures, Business Logic",
		},
		{
			name:  "granularity only",
			files: files[:1],
			prefs: Preferences{Granularity: "Fine"},
			want:  "XML Content:\n<flow name=\"a\"/>\nPreferences: Granularity=Fine",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.files, tt.prefs))
		})
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) string {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	write("flows/b.xml", "B")
	write("flows/a.XML", "A")
	write("flows/nested/c.html", "C")
	write("flows/skip.bin", "nope")
	single := write("notes.log", "L")

	files, err := Read(context.Background(), filepath.Join(dir, "flows"), single)
	require.NoError(t, err)
	assert.Equal(t, []File{
		{Name: "a.XML", Content: "A"},
		{Name: "b.xml", Content: "B"},
		{Name: "c.html", Content: "C"},
		{Name: "notes.log", Content: "L"},
	}, files)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "missing.xml"))
	require.Error(t, err)

	_, err = Read(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrNoFlows)

	_, err = Read(context.Background())
	require.ErrorIs(t, err, ErrNoFlows)
}
