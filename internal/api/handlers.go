package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dusk-indust/transmute/internal/artifact"
	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/intake"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/service"
)

// RunRequest is the payload for POST /v1/runs.
type RunRequest struct {
	ServiceName string `json:"service_name"`
	BasePackage string `json:"base_package"`

	// Flows is the analyze-stage input, usually the output of /v1/intake.
	Flows  string                          `json:"flows"`
	Inputs map[orchestrator.StageID]string `json:"inputs"`
	Entry  orchestrator.StageID            `json:"entry"`
	Prior  map[orchestrator.StageID]string `json:"prior"`
}

// StageRunRequest is the payload for POST /v1/stages/{id}/run.
type StageRunRequest struct {
	ServiceName string                          `json:"service_name"`
	BasePackage string                          `json:"base_package"`
	Input       string                          `json:"input"`
	Prior       map[orchestrator.StageID]string `json:"prior"`
}

// PlanRequest is the payload for POST /v1/plan.
type PlanRequest struct {
	Request string `json:"request"`
}

// ParseRequest is the payload for POST /v1/artifacts/parse.
type ParseRequest struct {
	Response string `json:"response"`
}

// StageView describes one declared stage.
type StageView struct {
	ID        orchestrator.StageID   `json:"id"`
	Title     string                 `json:"title"`
	DependsOn []orchestrator.StageID `json:"depends_on,omitempty"`
	Files     []string               `json:"files,omitempty"`
}

func (s *Server) handleListStages(w http.ResponseWriter, _ *http.Request) {
	var views []StageView
	for _, d := range s.svc.Stages() {
		views = append(views, StageView{ID: d.ID, Title: d.Title, DependsOn: d.DependsOn, Files: d.Files})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"stages": views})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inputs := make(map[orchestrator.StageID]string, len(req.Inputs)+1)
	for id, text := range req.Inputs {
		inputs[id] = text
	}
	if req.Flows != "" {
		inputs[orchestrator.StageAnalyze] = req.Flows
	}
	if msg := s.validate(req.Entry, inputs, req.Prior); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	out, err := s.svc.Run(r.Context(), orchestrator.Request{
		Inputs: inputs,
		Entry:  req.Entry,
		Params: orchestrator.Params{ServiceName: req.ServiceName, BasePackage: req.BasePackage},
		Prior:  req.Prior,
	})
	if err != nil {
		s.opts.Logger.Error(err, "run failed", "service", req.ServiceName)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, out)
}

func (s *Server) handleRunStage(w http.ResponseWriter, r *http.Request) {
	stage := orchestrator.StageID(mux.Vars(r)["id"])
	if !s.svc.Stages().Has(stage) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown stage %q", stage))
		return
	}

	var req StageRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := s.validate("", nil, req.Prior); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	oreq := orchestrator.Request{
		Params: orchestrator.Params{ServiceName: req.ServiceName, BasePackage: req.BasePackage},
		Prior:  req.Prior,
	}
	if req.Input != "" {
		oreq.Inputs = map[orchestrator.StageID]string{stage: req.Input}
	}

	out, err := s.svc.RunStage(r.Context(), oreq, stage)
	if err != nil {
		s.opts.Logger.Error(err, "stage failed", "stage", stage, "service", req.ServiceName)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, out)
}

// validate checks stage keys against the catalog and returns a message for
// the first problem found.
func (s *Server) validate(entry orchestrator.StageID, inputs, prior map[orchestrator.StageID]string) string {
	stages := s.svc.Stages()
	if entry != "" && entry != orchestrator.StageSupervisor && !stages.Has(entry) {
		return fmt.Sprintf("unknown entry stage %q", entry)
	}
	for id := range inputs {
		if !stages.Has(id) {
			return fmt.Sprintf("input for unknown stage %q", id)
		}
	}
	for id := range prior {
		if !stages.Has(id) {
			return fmt.Sprintf("prior output for unknown stage %q", id)
		}
	}
	return ""
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := s.svc.Plan(r.Context(), req.Request)
	if errors.Is(err, service.ErrNoPlanner) {
		writeError(w, http.StatusNotImplemented, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, out)
}

// handleIntake composes the analyze-stage input from uploaded flow files
// (multipart field "files") and optional preferences.
func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var files []intake.File
	for _, fh := range r.MultipartForm.File["files"] {
		if !slices.Contains(intake.Extensions, strings.ToLower(filepath.Ext(fh.Filename))) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported flow file %q", fh.Filename))
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload")
			return
		}
		files = append(files, intake.File{Name: fh.Filename, Content: string(data)})
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, intake.ErrNoFlows.Error())
		return
	}

	prefs := intake.Preferences{Granularity: r.FormValue("granularity")}
	for _, area := range r.MultipartForm.Value["focus_areas"] {
		if area = strings.TrimSpace(area); area != "" {
			prefs.FocusAreas = append(prefs.FocusAreas, area)
		}
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"files": names,
		"flows": intake.Compose(files, prefs),
	})
}

func (s *Server) handleParseArtifacts(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	arts := artifact.Parse(req.Response).Artifacts()
	writeJSONResponse(w, http.StatusOK, map[string]any{"artifacts": arts})
}

func (s *Server) handleQueryDocs(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "k must be a non-negative integer")
			return
		}
		k = n
	}

	text, err := s.svc.QueryDocs(r.Context(), q, k)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"context": text})
}

// handleDiagram renders the workflow. The current stage comes from
// ?current= or, with ?service=, from that bundle's next stage.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := export.DiagramOptions{
		Current:      orchestrator.StageID(q.Get("current")),
		Supervisor:   q.Get("supervisor") != "false",
		Dependencies: q.Get("dependencies") == "true",
	}
	if svc := q.Get("service"); svc != "" && opts.Current == "" {
		opts.Current = s.svc.Status(orchestrator.Params{ServiceName: svc}).Next
	}

	var body string
	switch q.Get("format") {
	case "", "mermaid":
		body = export.Mermaid(s.svc.Stages(), opts)
	case "dot":
		body = export.DOT(s.svc.Stages(), opts)
	default:
		writeError(w, http.StatusBadRequest, "format must be mermaid or dot")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleListBundles(w http.ResponseWriter, _ *http.Request) {
	bundles, err := s.svc.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"bundles": bundles})
}

func (s *Server) handleGetBundle(w http.ResponseWriter, r *http.Request) {
	p := orchestrator.Params{ServiceName: mux.Vars(r)["service"]}
	writeJSONResponse(w, http.StatusOK, s.svc.Status(p))
}

func (s *Server) handleBundleZip(w http.ResponseWriter, r *http.Request) {
	p := orchestrator.Params{ServiceName: mux.Vars(r)["service"]}
	outputs, err := s.svc.Outputs(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(outputs) == 0 {
		writeError(w, http.StatusNotFound, "no outputs for service")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.BundleName(p)+".zip"))
	if err := export.WriteZip(w, s.svc.Stages(), outputs); err != nil {
		s.opts.Logger.Error(err, "zip failed", "service", p.ServiceName)
	}
}
