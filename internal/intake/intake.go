// Package intake turns uploaded webMethods flow files into the analyze-stage
// input.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Header prefixes every composed input.
const Header = "XML Content:\n"

// Separator joins the contents of consecutive flow files.
const Separator = "\n---\n"

// Extensions accepted when reading a directory.
var Extensions = []string{".xml", ".html", ".htm", ".txt"}

// ErrNoFlows is returned when no flow file was found.
var ErrNoFlows = errors.New("intake: no flow files")

// File is one flow file.
type File struct {
	Name    string
	Content string
}

// Preferences are the optional analysis hints appended to the input.
type Preferences struct {
	Granularity string   `json:"granularity,omitempty"`
	FocusAreas  []string `json:"focus_areas,omitempty"`
}

func (p Preferences) empty() bool {
	return p.Granularity == "" && len(p.FocusAreas) == 0
}

func (p Preferences) String() string {
	var parts []string
	if p.Granularity != "" {
		parts = append(parts, "Granularity="+p.Granularity)
	}
	if len(p.FocusAreas) > 0 {
		parts = append(parts, "Focus Areas="+strings.Join(p.FocusAreas, ", "))
	}
	return "Preferences: " + strings.Join(parts, ", ")
}

// Compose joins the file contents into the analyze-stage input.
func Compose(files []File, prefs Preferences) string {
	contents := make([]string, len(files))
	for i, f := range files {
		contents[i] = f.Content
	}
	s := Header + strings.Join(contents, Separator)
	if !prefs.empty() {
		s += "\n" + prefs.String()
	}
	return s
}

// Read loads the flow files named by paths. A directory contributes every
// file below it with an accepted extension, in lexical order; a file path is
// read whatever its extension. Files are read concurrently.
func Read(ctx context.Context, paths ...string) ([]File, error) {
	var names []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("intake: %w", err)
		}
		if !info.IsDir() {
			names = append(names, p)
			continue
		}
		found, err := walk(p)
		if err != nil {
			return nil, err
		}
		names = append(names, found...)
	}
	if len(names) == 0 {
		return nil, ErrNoFlows
	}

	files := make([]File, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("intake: %w", err)
			}
			files[i] = File{Name: filepath.Base(name), Content: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func walk(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if slices.Contains(Extensions, strings.ToLower(filepath.Ext(p))) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("intake: walk %s: %w", dir, err)
	}
	return out, nil
}
