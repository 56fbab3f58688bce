package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lchelper/lchelper/internal/explain"
	"github.com/lchelper/lchelper/internal/problems"
	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/store"
)

const (
	defaultListLimit    = 100
	defaultCalendarDays = 14
	maxCalendarDays     = 366
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	var in problems.SyncInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Sync(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": res})
}

func (s *Server) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit", defaultListLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var out []problems.Summary
	if q.Get("due") == "true" {
		out, err = s.svc.Due(r.Context(), limit)
	} else {
		query := store.ProblemQuery{Search: q.Get("search"), Limit: limit}
		if d := q.Get("difficulty"); d != "" {
			if query.Difficulty, err = problems.ParseDifficulty(d); err != nil {
				writeError(w, r, err)
				return
			}
		}
		out, err = s.svc.List(r.Context(), query)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"problems": out})
}

func (s *Server) getProblem(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Get(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), mux.Vars(r)["slug"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) problemHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), "limit", 50)
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := s.svc.History(r.Context(), mux.Vars(r)["slug"], limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []store.ReviewEventData{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type revisionRequest struct {
	Slug       string `json:"slug"`
	Outcome    string `json:"outcome"`
	Confidence *int   `json:"confidenceScore,omitempty"`
}

func (s *Server) recordRevision(w http.ResponseWriter, r *http.Request) {
	var req revisionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Slug == "" || req.Outcome == "" {
		writeError(w, r, badRequestf("slug and outcome are required"))
		return
	}
	res, err := s.svc.Review(r.Context(), req.Slug, req.Outcome, req.Confidence)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": res})
}

func (s *Server) calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := intParam(q.Get("days"), "days", defaultCalendarDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if days < 1 || days > maxCalendarDays {
		writeError(w, r, badRequestf("days must be between 1 and %d", maxCalendarDays))
		return
	}

	sched := s.svc.Scheduler()
	from := sched.Engine().Today()
	if v := q.Get("from"); v != "" {
		if from, err = spacedrep.ParseDay(v); err != nil {
			writeError(w, r, badRequestf("from must be YYYY-MM-DD"))
			return
		}
	}

	loads, err := sched.Calendar(r.Context(), from, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": loads})
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		writeError(w, r, badRequestf("slug is required"))
		return
	}
	notes, err := s.svc.Notes(r.Context(), slug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

type noteRequest struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Slug == "" {
		writeError(w, r, badRequestf("slug is required"))
		return
	}
	note, err := s.svc.AddNote(r.Context(), req.Slug, req.Type, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "note": note})
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	note, err := s.svc.EditNote(r.Context(), req.ID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "note": note})
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteNote(r.Context(), r.URL.Query().Get("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type explainRequest struct {
	Slug  string `json:"slug"`
	Force bool   `json:"force"`
}

func (s *Server) explain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Slug == "" {
		writeError(w, r, badRequestf("slug is required"))
		return
	}
	if s.explainer == nil {
		writeError(w, r, explain.ErrDisabled)
		return
	}
	exp, cached, err := s.explainer.Explain(r.Context(), req.Slug, req.Force)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "explanation": exp, "cached": cached})
}

func intParam(raw, name string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequestf("%s must be a non-negative integer", name)
	}
	return n, nil
}
