package orchestrator

import (
	"context"
	"sync"
	"testing"
	"text/template"

	"github.com/stretchr/testify/require"
)

// testCatalog builds a linear catalog s1 -> s2 -> s3 where each stage depends
// on the previous one.
func testCatalog(t *testing.T) Catalog {
	t.Helper()
	tmpl := func(name string) *template.Template {
		tt, err := template.New(name).Parse("[{{.Context}}] {{.Input}}{{if .Upstream}}\n{{.Upstream}}{{end}}")
		require.NoError(t, err)
		return tt
	}
	return Catalog{
		{ID: "s1", Title: "One", Query: "q1", Template: tmpl("s1")},
		{ID: "s2", Title: "Two", Query: "q2", Template: tmpl("s2"), DependsOn: []StageID{"s1"}},
		{ID: "s3", Title: "Three", Query: "q3", Template: tmpl("s3"), DependsOn: []StageID{"s2"}},
	}
}

// recordingOracle records every prompt and answers via respond.
type recordingOracle struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (r *recordingOracle) Invoke(_ context.Context, prompt string) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	r.mu.Unlock()
	if r.respond == nil {
		return "### out.txt\n" + prompt, nil
	}
	return r.respond(prompt)
}

func (r *recordingOracle) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prompts)
}

// fakeRetriever answers every query via fn.
type fakeRetriever struct {
	fn func(text string, k int) (string, error)
}

func (f fakeRetriever) Query(_ context.Context, text string, k int) (string, error) {
	return f.fn(text, k)
}
