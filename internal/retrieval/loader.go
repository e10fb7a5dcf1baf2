package retrieval

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	pdf "github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

var allowedExt = []string{".pdf", ".txt", ".md", ".markdown", ".html", ".xml"}

// Document is one ingested corpus file.
type Document struct {
	Source string
	Text   string
}

// LoadCorpus reads every ingestible document under dir. A missing or empty
// directory yields no documents and no error. Files that cannot be read are
// logged and skipped.
func LoadCorpus(ctx context.Context, dir string, log logr.Logger) ([]Document, error) {
	if dir == "" {
		return nil, nil
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		log.V(1).Info("corpus directory not found", "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieval: stat corpus %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("retrieval: corpus %s is not a directory", dir)
	}

	paths, err := listFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("retrieval: walk corpus %s: %w", dir, err)
	}

	texts := make([]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := extractText(p)
			if err != nil {
				log.Error(err, "skipping unreadable document", "path", p)
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var docs []Document
	for i, p := range paths {
		if strings.TrimSpace(texts[i]) == "" {
			log.V(1).Info("skipping document without text", "path", p)
			continue
		}
		docs = append(docs, Document{Source: p, Text: texts[i]})
	}
	return docs, nil
}

func listFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, a := range allowedExt {
			if ext == a {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	return out, err
}

func extractText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDF(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractPDF returns the plain text of a PDF. Scanned documents without a
// text layer yield "".
func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
