package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/transmute/internal/export"
)

func writeReport(p string, r *export.Report) (err error) {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("service: mkdir: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("service: create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("service: close report: %w", cerr)
		}
	}()
	return export.WriteJSON(f, r)
}
