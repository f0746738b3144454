package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/talentflow/talentflow/app/store"
)

// CandidateDetails is the single-candidate view with its job joined in
type CandidateDetails struct {
	store.Candidate
	Job store.Job `json:"job"`
}

// handleListCandidates serves GET /api/candidates with search, stage and job
// filters plus pagination, newest applications first
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := q.Get("search")
	stage := q.Get("stage")
	jobID := q.Get("jobId")
	page := intParam(q, "page", 1)
	pageSize := intParam(q, "pageSize", defaultPageSize)

	candidates, err := s.store.ListCandidates(jobID)
	if err != nil {
		log.Printf("[ERROR] failed to load candidates: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch candidates")
		return
	}

	candidates = searchCandidates(candidates, search)
	candidates = filterCandidatesByStage(candidates, stage)

	s.writeJSON(w, http.StatusOK, newPage(candidates, page, pageSize))
}

// handleGetCandidate serves GET /api/candidates/{id}
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	candidate, err := s.store.GetCandidate(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "candidate not found")
			return
		}
		log.Printf("[ERROR] failed to get candidate %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch candidate")
		return
	}

	job, err := s.store.GetJob(candidate.JobID)
	if err != nil {
		// generated data guarantees the reference resolves, a miss here is a data defect
		log.Printf("[ERROR] job %s for candidate %s does not resolve: %v", candidate.JobID, id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch candidate")
		return
	}

	s.writeJSON(w, http.StatusOK, CandidateDetails{Candidate: candidate, Job: job})
}

// stageRequest is the PATCH /api/candidates/{id}/stage body
type stageRequest struct {
	Stage string `json:"stage"`
	Note  string `json:"note"`
}

// handleCandidateStage serves PATCH /api/candidates/{id}/stage: moves the
// candidate and appends a timeline entry. The canonical progression is not
// re-validated on runtime transitions.
func (s *Server) handleCandidateStage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	stage, err := store.ParseStage(req.Stage)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidate, err := s.store.GetCandidate(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "candidate not found")
			return
		}
		log.Printf("[ERROR] failed to get candidate %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to update candidate stage")
		return
	}

	timeline := append(candidate.Timeline, store.TimelineEntry{
		ID:        uuid.New().String(),
		Stage:     stage,
		Timestamp: s.store.Now(),
		Note:      req.Note,
		UserID:    "hr-1",
		UserName:  "HR Team",
	})

	updated, err := s.store.UpdateCandidate(id, store.CandidatePatch{Stage: &stage, Timeline: &timeline})
	if err != nil {
		log.Printf("[ERROR] failed to update candidate %s stage: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to update candidate stage")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// handleKanban serves GET /api/candidates/kanban: candidates grouped by
// stage, all six stages present even when empty
func (s *Server) handleKanban(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	candidates, err := s.store.ListCandidates(jobID)
	if err != nil {
		log.Printf("[ERROR] failed to load candidates for kanban: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch kanban data")
		return
	}

	groups := make(map[store.Stage][]store.Candidate, len(store.Stages()))
	for _, stage := range store.Stages() {
		groups[stage] = []store.Candidate{}
	}
	for _, c := range candidates {
		groups[c.Stage] = append(groups[c.Stage], c)
	}
	s.writeJSON(w, http.StatusOK, groups)
}

// searchCandidates filters by case-insensitive substring over name or email
func searchCandidates(candidates []store.Candidate, term string) []store.Candidate {
	if term == "" {
		return candidates
	}
	needle := strings.ToLower(term)
	filtered := make([]store.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Name), needle) || strings.Contains(strings.ToLower(c.Email), needle) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// filterCandidatesByStage keeps candidates in the given stage, "all" or empty disables
func filterCandidatesByStage(candidates []store.Candidate, stage string) []store.Candidate {
	if stage == "" || stage == "all" {
		return candidates
	}
	filtered := make([]store.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if string(c.Stage) == stage {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
