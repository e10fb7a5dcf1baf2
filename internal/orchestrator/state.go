package orchestrator

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Params defaults.
const (
	DefaultServiceName = "default"
	DefaultBasePackage = "com.example"
)

// Params are the structured fields stage templates use for names and paths.
type Params struct {
	ServiceName string `json:"service_name,omitempty" yaml:"service_name" toml:"service_name"`
	BasePackage string `json:"base_package,omitempty" yaml:"base_package" toml:"base_package"`
}

// WithDefaults fills empty fields.
func (p Params) WithDefaults() Params {
	if strings.TrimSpace(p.ServiceName) == "" {
		p.ServiceName = DefaultServiceName
	}
	if strings.TrimSpace(p.BasePackage) == "" {
		p.BasePackage = DefaultBasePackage
	}
	return p
}

// Package is the Java package of the service, e.g. "com.example.orders".
func (p Params) Package() string {
	p = p.WithDefaults()
	seg := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, p.ServiceName)
	if seg == "" {
		seg = DefaultServiceName
	}
	return strings.Trim(p.BasePackage, ".") + "." + seg
}

// PackageDir is Package with dots replaced by slashes.
func (p Params) PackageDir() string {
	return strings.ReplaceAll(p.Package(), ".", "/")
}

// ClassPrefix is the service name in PascalCase, e.g. "order-service"
// becomes "OrderService".
func (p Params) ClassPrefix() string {
	p = p.WithDefaults()
	words := strings.FieldsFunc(p.ServiceName, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		r := []rune(w)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	if b.Len() == 0 {
		return "Default"
	}
	return b.String()
}

// Plan maps each stage to the supervisor's description of it. It is advisory
// and never changes which stages run.
type Plan map[StageID]string

// PlanStatus reports how a plan was obtained.
type PlanStatus string

const (
	PlanNotAttempted PlanStatus = "not-attempted"
	PlanParsed       PlanStatus = "parsed"
	PlanSalvaged     PlanStatus = "salvaged"
	PlanFailed       PlanStatus = "failed"
)

// OK reports whether the status carries a usable plan.
func (s PlanStatus) OK() bool {
	return s == PlanParsed || s == PlanSalvaged
}

// State is the mutable record threaded through one run. It is owned by a
// single goroutine for the duration of the run.
type State struct {
	RunID string

	// Inputs has an entry for every declared stage.
	Inputs map[StageID]string

	// Outputs holds the raw oracle response per completed stage.
	Outputs map[StageID]string

	Current          StageID
	RetrievedContext string
	Plan             Plan
	PlanStatus       PlanStatus

	// Queue is the remaining stages; its head is Current while running.
	Queue []StageID

	Params Params
}

// NewState creates a fresh state for the declared stages. Inputs for
// undeclared stages are ignored.
func NewState(stages []StageID, inputs map[StageID]string, params Params) *State {
	in := make(map[StageID]string, len(stages))
	for _, id := range stages {
		in[id] = inputs[id]
	}
	return &State{
		RunID:      uuid.NewString(),
		Inputs:     in,
		Outputs:    make(map[StageID]string),
		Plan:       Plan{},
		PlanStatus: PlanNotAttempted,
		Params:     params.WithDefaults(),
	}
}

// Seed replaces the queue and points Current at its head.
func (s *State) Seed(queue []StageID) {
	s.Queue = slices.Clone(queue)
	s.Current = s.head()
}

// Advance pops id from the head of the queue and moves Current to the next
// stage, or to StageTerminal when none remain.
func (s *State) Advance(id StageID) {
	if len(s.Queue) > 0 && s.Queue[0] == id {
		s.Queue = s.Queue[1:]
	}
	s.Current = s.head()
}

func (s *State) head() StageID {
	if len(s.Queue) == 0 {
		return StageTerminal
	}
	return s.Queue[0]
}

// Result snapshots the state.
func (s *State) Result() *Result {
	return &Result{
		RunID:            s.RunID,
		Outputs:          maps.Clone(s.Outputs),
		Plan:             maps.Clone(s.Plan),
		PlanStatus:       s.PlanStatus,
		Current:          s.Current,
		Queue:            append([]StageID{}, s.Queue...),
		RetrievedContext: s.RetrievedContext,
		Params:           s.Params,
	}
}
