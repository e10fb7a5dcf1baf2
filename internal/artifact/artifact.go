// Package artifact splits one generation response into the files it declares.
//
// A response declares a file with a marker line of the form "### <path>".
// Every line after the marker, up to the next marker or the end of the
// response, belongs to that file.
package artifact

import "strings"

// Marker is the line prefix that introduces a new artifact.
const Marker = "### "

// Artifact is one (path, content) pair extracted from a response.
type Artifact struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Set is an ordered mapping of path to content. Paths keep the position at
// which they were first seen; a later artifact with the same path replaces
// the content only.
type Set struct {
	order []string
	files map[string]string
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{files: make(map[string]string)}
}

// Put stores content under path.
func (s *Set) Put(path, content string) {
	if _, ok := s.files[path]; !ok {
		s.order = append(s.order, path)
	}
	s.files[path] = content
}

// Get returns the content stored under path.
func (s *Set) Get(path string) (string, bool) {
	c, ok := s.files[path]
	return c, ok
}

// Len returns the number of distinct paths.
func (s *Set) Len() int {
	return len(s.order)
}

// Paths returns the paths in first-seen order.
func (s *Set) Paths() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Artifacts returns the artifacts in first-seen order.
func (s *Set) Artifacts() []Artifact {
	out := make([]Artifact, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, Artifact{Path: p, Content: s.files[p]})
	}
	return out
}

// Parse splits response into artifacts. Text before the first marker is
// ignored. A marker with an empty path closes the current artifact without
// opening a new one, and a marker followed directly by another marker
// stores nothing. A response without any marker yields an empty Set.
func Parse(response string) *Set {
	set := NewSet()

	var (
		path string
		buf  []string
	)

	flush := func() {
		if path == "" || len(buf) == 0 {
			return
		}
		set.Put(path, strings.TrimSpace(strings.Join(buf, "\n")))
	}

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, Marker) {
			flush()
			path = strings.TrimSpace(line[len(Marker):])
			buf = buf[:0]
			continue
		}
		if path != "" {
			buf = append(buf, line)
		}
	}
	flush()

	return set
}
