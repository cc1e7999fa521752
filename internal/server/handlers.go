package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/slotfit/pkg/buildinfo"
	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
	slotio "github.com/matzehuels/slotfit/pkg/io"
	"github.com/matzehuels/slotfit/pkg/pipeline"
	"github.com/matzehuels/slotfit/pkg/report"
	"github.com/matzehuels/slotfit/pkg/style"
)

// SolveRequest is the body of POST /v1/solve. Slots and Notes carry the
// same documents the CLI reads from files. Style is TOML overlaid onto the
// server defaults.
type SolveRequest struct {
	Slots    json.RawMessage `json:"slots"`
	Notes    json.RawMessage `json:"notes"`
	Style    string          `json:"style,omitempty"`
	Strategy string          `json:"strategy,omitempty"`
	Measurer string          `json:"measurer,omitempty"`
	Spreads  []string        `json:"spreads,omitempty"`
	Save     bool            `json:"save,omitempty"`
}

// SolveResponse is the body returned by POST /v1/solve.
type SolveResponse struct {
	RunID    string         `json:"run_id"`
	Success  bool           `json:"success"`
	Saved    bool           `json:"saved,omitempty"`
	Summary  report.Summary `json:"summary"`
	Rows     []report.Row   `json:"rows"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ProfilesRequest is the body of POST /v1/profiles.
type ProfilesRequest struct {
	Style string `json:"style,omitempty"`
}

// ProfilesResponse lists profiles in the order the solver tries them.
type ProfilesResponse struct {
	Profiles []style.Profile `json:"profiles"`
	Warnings []string        `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Slots) == 0 || len(req.Notes) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "slots and notes are required"))
		return
	}

	cfg, err := s.styleConfig(req.Style)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Strategy != "" {
		cfg.Solver.Strategy = req.Strategy
	}

	slots, err := slotio.ReadSlots(bytes.NewReader(req.Slots), slotio.SlotOptionsFrom(cfg.Column))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	notes, err := slotio.ReadNotesJSON(bytes.NewReader(req.Notes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	spreads, err := slotio.ParseSpreads(req.Spreads)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "spreads"))
		return
	}

	ctx := r.Context()
	if s.cfg.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SolveTimeout)
		defer cancel()
	}

	opts := pipeline.Options{
		Config:   cfg,
		Measurer: req.Measurer,
		Spreads:  spreads,
		Logger:   s.cfg.Logger,
	}
	result, err := s.cfg.Runner.Run(ctx, slots, notes, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := SolveResponse{
		RunID:    result.Report.RunID,
		Success:  result.Success(),
		Summary:  result.Report.Summarize(),
		Rows:     result.Report.Rows,
		Warnings: cfg.Warnings,
	}
	if req.Save && s.cfg.Store != nil {
		if err := s.cfg.Store.Save(ctx, result.Report); err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Saved = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	var req ProfilesRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg, err := s.styleConfig(req.Style)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfilesResponse{Profiles: cfg.Profiles(), Warnings: cfg.Warnings})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no report store configured"))
		return
	}
	runs, err := s.cfg.Store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []report.Summary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no report store configured"))
		return
	}
	rep, err := s.cfg.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// styleConfig overlays inline TOML onto the server defaults and resolves
// the result.
func (s *Server) styleConfig(tomlText string) (config.Config, error) {
	cfg := s.cfg.Defaults
	if cfg.Body.Base == 0 {
		cfg = config.Default()
	}
	if tomlText != "" {
		var err error
		if cfg, err = cfg.Decode(tomlText); err != nil {
			return cfg, err
		}
	}
	return cfg.Resolve(), nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if stderrors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
