package oracle

import (
	"context"

	"github.com/dusk-indust/transmute/internal/artifact"
)

// Echo answers every prompt with a single artifact holding the head of the
// prompt. It never fails and is used for dry runs.
type Echo struct {
	// Path is the artifact path. Defaults to "out.txt".
	Path string

	// Head is the number of prompt characters echoed. Zero echoes everything.
	Head int
}

// Invoke returns "### <Path>\n<prompt head>".
func (e Echo) Invoke(_ context.Context, prompt string) (string, error) {
	path := e.Path
	if path == "" {
		path = "out.txt"
	}
	return artifact.Marker + path + "\n" + head(prompt, e.Head), nil
}

func head(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
