package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BlocksInOrder(t *testing.T) {
	response := "Here are your files.\n" +
		"### pom.xml\n" +
		"<project/>\n" +
		"\n" +
		"### src/main/resources/application.yml\n" +
		"\n" +
		"server:\n" +
		"  port: 8080\n" +
		"\n" +
		"### README.md\n" +
		"# Orders\n"

	set := Parse(response)

	require.Equal(t, 3, set.Len())
	assert.Equal(t, []string{"pom.xml", "src/main/resources/application.yml", "README.md"}, set.Paths())

	pom, ok := set.Get("pom.xml")
	require.True(t, ok)
	assert.Equal(t, "<project/>", pom)

	yml, _ := set.Get("src/main/resources/application.yml")
	assert.Equal(t, "server:\n  port: 8080", yml)

	readme, _ := set.Get("README.md")
	assert.Equal(t, "# Orders", readme)
}

func TestParse_NoMarkers(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "empty", response: ""},
		{name: "prose", response: "I could not produce any files for this request."},
		{name: "deeper heading", response: "#### not-a-file\ncontent"},
		{name: "marker without space", response: "###pom.xml\n<project/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Parse(tt.response)
			require.NotNil(t, set)
			assert.Equal(t, 0, set.Len())
			assert.Empty(t, set.Artifacts())
		})
	}
}

func TestParse_DuplicatePathKeepsLastContent(t *testing.T) {
	response := "### a.md\nfirst\n### b.md\nmiddle\n### a.md\nsecond\n"

	set := Parse(response)

	require.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"a.md", "b.md"}, set.Paths())
	a, _ := set.Get("a.md")
	assert.Equal(t, "second", a)
}

func TestParse_TrimsPathAndCarriageReturns(t *testing.T) {
	set := Parse("###   docs/howto.md  \r\nline one\r\nline two\r\n")

	require.Equal(t, 1, set.Len())
	content, ok := set.Get("docs/howto.md")
	require.True(t, ok)
	assert.Equal(t, "line one\nline two", content)
}

func TestParse_EmptyBlock(t *testing.T) {
	set := Parse("### empty.txt\n\n\n### full.txt\nx")

	require.Equal(t, 2, set.Len())
	empty, ok := set.Get("empty.txt")
	require.True(t, ok)
	assert.Equal(t, "", empty)
}

func TestParse_MarkersWithoutContent(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantPaths []string
		want      map[string]string
	}{
		{
			name:      "empty path is not an artifact",
			response:  "### \nstray\n### a.md\nfirst",
			wantPaths: []string{"a.md"},
			want:      map[string]string{"a.md": "first"},
		},
		{
			name:      "empty path closes the previous artifact",
			response:  "### a.md\nfirst\n###    \nstray",
			wantPaths: []string{"a.md"},
			want:      map[string]string{"a.md": "first"},
		},
		{
			name:      "back to back markers keep the earlier block",
			response:  "### \nstray\n### a.md\nfirst\n### a.md\n### b.md\nx",
			wantPaths: []string{"a.md", "b.md"},
			want:      map[string]string{"a.md": "first", "b.md": "x"},
		},
		{
			name:      "marker at end of response",
			response:  "### a.md\nfirst\n### b.md",
			wantPaths: []string{"a.md"},
			want:      map[string]string{"a.md": "first"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Parse(tt.response)
			assert.Equal(t, tt.wantPaths, set.Paths())
			for path, content := range tt.want {
				got, ok := set.Get(path)
				require.True(t, ok, path)
				assert.Equal(t, content, got, path)
			}
		})
	}
}

func TestSet_ArtifactsCopiesOrder(t *testing.T) {
	set := NewSet()
	set.Put("x", "1")
	set.Put("y", "2")

	paths := set.Paths()
	paths[0] = "mutated"

	assert.Equal(t, []Artifact{{Path: "x", Content: "1"}, {Path: "y", Content: "2"}}, set.Artifacts())
}
