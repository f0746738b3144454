package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/go-pkgz/lgr"

	"github.com/talentflow/talentflow/app/store"
)

// handleListAssessments serves GET /api/assessments, optionally narrowed to
// one job with ?jobId. Returns a plain array, not the paginated envelope.
func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	assessments, err := s.store.ListAssessments(jobID)
	if err != nil {
		log.Printf("[ERROR] failed to load assessments: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch assessments")
		return
	}
	s.writeJSON(w, http.StatusOK, assessments)
}

// createAssessmentRequest is the POST /api/assessments body
type createAssessmentRequest struct {
	JobID       string          `json:"jobId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Sections    []store.Section `json:"sections"`
	TimeLimit   int             `json:"timeLimit"`
}

// handleCreateAssessment serves POST /api/assessments. New assessments are
// always created active.
func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.JobID == "" || req.Title == "" {
		s.writeJSONError(w, http.StatusBadRequest, "jobId and title are required")
		return
	}

	assessment := store.Assessment{
		JobID:       req.JobID,
		Title:       req.Title,
		Description: req.Description,
		Sections:    req.Sections,
		IsActive:    true,
		TimeLimit:   req.TimeLimit,
	}
	if err := s.store.CreateAssessment(&assessment); err != nil {
		log.Printf("[ERROR] failed to create assessment: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to create assessment")
		return
	}
	s.writeJSON(w, http.StatusCreated, assessment)
}

// submitResponseRequest is the POST /api/assessments/{id}/responses body
type submitResponseRequest struct {
	CandidateID string         `json:"candidateId"`
	Responses   map[string]any `json:"responses"`
	Status      string         `json:"status"`
}

// handleCreateResponse serves POST /api/assessments/{id}/responses
func (s *Server) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetAssessment(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "assessment not found")
			return
		}
		log.Printf("[ERROR] failed to get assessment %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to submit response")
		return
	}

	var req submitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CandidateID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "candidateId is required")
		return
	}
	status := store.ResponseStatus("")
	if req.Status != "" {
		parsed, err := store.ParseResponseStatus(req.Status)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	resp := store.AssessmentResponse{
		AssessmentID: id,
		CandidateID:  req.CandidateID,
		Responses:    req.Responses,
		Status:       status,
	}
	if err := s.store.CreateResponse(&resp); err != nil {
		log.Printf("[ERROR] failed to create response for assessment %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to submit response")
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

// handleListResponses serves GET /api/assessments/{id}/responses, optionally
// narrowed to one candidate with ?candidateId
func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetAssessment(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "assessment not found")
			return
		}
		log.Printf("[ERROR] failed to get assessment %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch responses")
		return
	}

	responses, err := s.store.ListResponses(id, r.URL.Query().Get("candidateId"))
	if err != nil {
		log.Printf("[ERROR] failed to load responses for assessment %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch responses")
		return
	}
	s.writeJSON(w, http.StatusOK, responses)
}
