package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-logr/logr"

	"github.com/dusk-indust/transmute/internal/oracle"
	"github.com/dusk-indust/transmute/internal/retrieval"
)

// Definition describes one generation stage.
type Definition struct {
	ID    StageID
	Title string

	// Query is the retrieval query for the stage's reference context.
	Query string

	// Template renders the prompt from a PromptData value.
	Template *template.Template

	// DependsOn lists the stages whose outputs are composed into the
	// prompt, in that order.
	DependsOn []StageID

	// Files are the artifact paths the stage is expected to produce. They
	// may contain the placeholders {package_dir} and {class}.
	Files []string
}

// ExpectedFiles resolves the Files placeholders for p.
func (d Definition) ExpectedFiles(p Params) []string {
	r := strings.NewReplacer("{package_dir}", p.PackageDir(), "{class}", p.ClassPrefix())
	out := make([]string, len(d.Files))
	for i, f := range d.Files {
		out[i] = r.Replace(f)
	}
	return out
}

// PromptData is the value a stage template is executed with.
type PromptData struct {
	Context  string
	Input    string
	Upstream string
	Params   Params
}

// Compose renders the stage prompt for the given state and retrieved context.
func (d Definition) Compose(state *State, retrieved string) (string, error) {
	if d.Template == nil {
		return "", fmt.Errorf("stage %q: no template", d.ID)
	}
	var b strings.Builder
	err := d.Template.Execute(&b, PromptData{
		Context:  retrieved,
		Input:    state.Inputs[d.ID],
		Upstream: Upstream(d.DependsOn, state.Outputs),
		Params:   state.Params,
	})
	if err != nil {
		return "", fmt.Errorf("stage %q: render prompt: %w", d.ID, err)
	}
	return b.String(), nil
}

// Upstream joins the outputs of deps in order, each labelled with its stage.
// Dependencies without output are skipped.
func Upstream(deps []StageID, outputs map[StageID]string) string {
	var blocks []string
	for _, dep := range deps {
		out := outputs[dep]
		if out == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("--- %s output ---\n%s", dep, out))
	}
	return strings.Join(blocks, "\n\n")
}

// StageOptions configures an LLMStage.
type StageOptions struct {
	// K is the number of passages retrieved. Defaults to retrieval.DefaultK.
	K      int
	Logger logr.Logger
}

// LLMStage is the handler for one Definition: retrieve, compose, generate.
type LLMStage struct {
	def       Definition
	retriever retrieval.Retriever
	oracle    oracle.Oracle
	k         int
	log       logr.Logger
}

var _ Handler = (*LLMStage)(nil)

// NewLLMStage creates the handler for def. A nil retriever behaves like an
// empty index.
func NewLLMStage(def Definition, r retrieval.Retriever, o oracle.Oracle, opts StageOptions) *LLMStage {
	if r == nil {
		r = retrieval.Empty()
	}
	if opts.K <= 0 {
		opts.K = retrieval.DefaultK
	}
	return &LLMStage{def: def, retriever: r, oracle: o, k: opts.K, log: opts.Logger}
}

// Definition returns the stage's definition.
func (s *LLMStage) Definition() Definition {
	return s.def
}

// Handle runs the stage when it is current and advances the queue.
func (s *LLMStage) Handle(ctx context.Context, state *State) error {
	if state.Current != s.def.ID {
		return nil
	}

	retrieved, err := s.retriever.Query(ctx, s.def.Query, s.k)
	if err != nil {
		return err
	}

	prompt, err := s.def.Compose(state, retrieved)
	if err != nil {
		return err
	}
	s.log.V(2).Info("prompt composed", "stage", s.def.ID, "chars", len(prompt))

	resp, err := s.oracle.Invoke(ctx, prompt)
	if err != nil {
		return err
	}

	state.Outputs[s.def.ID] = resp
	state.RetrievedContext = retrieved
	state.Advance(s.def.ID)
	return nil
}
