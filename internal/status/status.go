// Package status reports how far a transformation bundle has progressed.
package status

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/orchestrator"
)

// StageInfo describes the completion state of a single stage.
type StageInfo struct {
	ID       orchestrator.StageID `json:"id"`
	Title    string               `json:"title"`
	Complete bool                 `json:"complete"`

	// Files are the artifacts on disk, relative to the stage directory.
	Files []string `json:"files,omitempty"`
}

// BundleStatus holds the status of one bundle directory.
type BundleStatus struct {
	Name   string               `json:"name"`
	Dir    string               `json:"dir"`
	Stages []StageInfo          `json:"stages"`
	Next   orchestrator.StageID `json:"next"`
}

// Done reports whether every stage is complete.
func (b BundleStatus) Done() bool {
	return b.Next.IsTerminal()
}

// Scan checks which stages of the catalog have a saved response in dir.
// Next is the first stage without one, in catalog order.
func Scan(dir string, stages orchestrator.Catalog) BundleStatus {
	bs := BundleStatus{
		Name: filepath.Base(dir),
		Dir:  dir,
	}
	done := make(map[orchestrator.StageID]string)
	for _, d := range stages {
		si := StageInfo{
			ID:       d.ID,
			Title:    d.Title,
			Complete: exists(export.ResponsePath(dir, d.ID)),
			Files:    listFiles(export.StageDir(dir, d.ID)),
		}
		if si.Complete {
			done[d.ID] = ""
		}
		bs.Stages = append(bs.Stages, si)
	}
	bs.Next = stages.Next(done)
	return bs
}

// List scans every bundle directly under root, sorted by name. A directory
// counts as a bundle when it has a responses or transformation directory.
func List(root string, stages orchestrator.Catalog) ([]BundleStatus, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var out []BundleStatus
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if !exists(filepath.Join(dir, export.ResponsesDir)) && !exists(filepath.Join(dir, export.TransformationDir)) {
			continue
		}
		out = append(out, Scan(dir, stages))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// listFiles returns the regular files under dir as slash paths, or nil when
// dir does not exist.
func listFiles(dir string) []string {
	var files []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files
}
