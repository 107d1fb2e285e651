package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/claude/workoutlog/internal/program"
	"github.com/claude/workoutlog/internal/psl"
)

// maxSourceBytes caps program documents read from request bodies.
const maxSourceBytes = 1 << 20

// readSource accepts either a raw program document or a JSON body of the
// form {"source": "..."}.
func readSource(r *http.Request) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSourceBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Source string `json:"source"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return "", fmt.Errorf("invalid JSON: %w", err)
		}
		return body.Source, nil
	}
	return string(data), nil
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	src, err := readSource(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, psl.Compile(src))
}

func (s *Server) handleImportProgram(w http.ResponseWriter, r *http.Request) {
	src, err := readSource(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, res, err := s.svc.Programs.ImportSource(r.Context(), src)
	if errors.Is(err, program.ErrInvalidProgram) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":       err.Error(),
			"diagnostics": res.Diagnostics,
		})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"program":     p,
		"diagnostics": res.Diagnostics,
	})
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	programs, err := s.db.ListPrograms(r.Context(), activeOnly)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := s.svc.Programs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.Programs.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	act, err := s.svc.Programs.Activate(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, act)
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.Programs.Deactivate(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	res, err := s.svc.Scheduler.GenerateWindow(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListPlanned(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	from, to, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, err := s.db.GetProgram(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	planned, err := s.db.ListPlannedWorkouts(r.Context(), id, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planned)
}

func (s *Server) handleReplaceProgressions(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var rules []program.Rule
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	stored, err := s.svc.Programs.ReplaceProgressions(r.Context(), id, rules)
	if err != nil {
		s.writeRuleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handlePropagateProgression(w http.ResponseWriter, r *http.Request) {
	programID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	exerciseID, ok := uuidParam(w, r, "exerciseID")
	if !ok {
		return
	}
	var rule program.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	n, err := s.svc.Programs.PropagateProgression(r.Context(), programID, exerciseID, rule)
	if err != nil {
		s.writeRuleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// writeRuleError reports invalid rules as 400 and everything else through
// writeError.
func (s *Server) writeRuleError(w http.ResponseWriter, err error) {
	if errors.Is(err, program.ErrInvalidRule) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.writeError(w, err)
}
