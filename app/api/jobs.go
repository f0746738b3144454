package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"
	"github.com/google/uuid"

	"github.com/talentflow/talentflow/app/store"
)

// JobWithCount is a job row joined with its read-time candidate count
type JobWithCount struct {
	store.Job
	CandidateCount int `json:"candidateCount"`
}

// JobDetails is the single-job view with recent applicants joined in
type JobDetails struct {
	store.Job
	CandidateCount   int               `json:"candidateCount"`
	RecentCandidates []store.Candidate `json:"recentCandidates"`
}

// handleListJobs serves GET /api/jobs with search, filters, sorting and pagination
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := q.Get("search")
	status := q.Get("status")
	department := q.Get("department")
	page := intParam(q, "page", 1)
	pageSize := intParam(q, "pageSize", defaultPageSize)
	sortBy := q.Get("sortBy")
	if sortBy == "" {
		sortBy = "createdAt"
	}
	sortOrder := q.Get("sortOrder")
	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	jobs, err := s.store.ListJobs()
	if err != nil {
		log.Printf("[ERROR] failed to load jobs: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	jobs = searchJobs(jobs, search)
	jobs = filterJobs(jobs, status, department)
	sortJobs(jobs, sortBy, sortOrder)

	resp := newPage(jobs, page, pageSize)
	s.writeJSON(w, http.StatusOK, Page[JobWithCount]{
		Data:       s.joinCandidateCounts(resp.Data),
		Total:      resp.Total,
		Page:       resp.Page,
		PageSize:   resp.PageSize,
		TotalPages: resp.TotalPages,
	})
}

// handleGetJob serves GET /api/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.store.GetJob(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "job not found")
			return
		}
		log.Printf("[ERROR] failed to get job %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch job")
		return
	}

	count, err := s.store.CountCandidatesByJob(id)
	if err != nil {
		log.Printf("[ERROR] failed to count candidates for job %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch job")
		return
	}
	recent, err := s.store.RecentCandidatesByJob(id, recentCandidates)
	if err != nil {
		log.Printf("[ERROR] failed to load recent candidates for job %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch job")
		return
	}

	s.writeJSON(w, http.StatusOK, JobDetails{Job: job, CandidateCount: count, RecentCandidates: recent})
}

// handleCreateJob serves POST /api/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var job store.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if job.Title == "" {
		s.writeJSONError(w, http.StatusBadRequest, "title is required")
		return
	}

	// server-assigned fields
	job.ID = uuid.New().String()
	if job.Slug == "" {
		job.Slug = strings.Join(strings.Fields(strings.ToLower(job.Title)), "-")
	}
	count, err := s.store.CountJobs()
	if err != nil {
		log.Printf("[ERROR] failed to count jobs: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	job.Order = count // append at the end of the display order
	if job.Tags == nil {
		job.Tags = []string{}
	}
	if job.Requirements == nil {
		job.Requirements = []string{}
	}
	job.CreatedAt, job.UpdatedAt = time.Time{}, time.Time{} // stamped by the store

	if err := s.store.CreateJob(&job); err != nil {
		if errors.Is(err, store.ErrValidation) {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[ERROR] failed to create job: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	s.writeJSON(w, http.StatusCreated, job)
}

// handleUpdateJob serves PUT /api/jobs/{id}
func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch store.JobPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Status != nil {
		if _, err := store.ParseJobStatus(string(*patch.Status)); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	job, err := s.store.UpdateJob(id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "job not found")
			return
		}
		log.Printf("[ERROR] failed to update job %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to update job")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// reorderRequest is the PATCH /api/jobs/{id}/reorder body. FromOrder is
// accepted for API compatibility but the stored order is the move source.
type reorderRequest struct {
	FromOrder int `json:"fromOrder"`
	ToOrder   int `json:"toOrder"`
}

// handleReorderJob serves PATCH /api/jobs/{id}/reorder
func (s *Server) handleReorderJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.store.ReorderJob(id, req.ToOrder); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "job not found")
			return
		}
		log.Printf("[ERROR] failed to reorder job %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to reorder job")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// joinCandidateCounts computes the candidateCount join for a page of jobs.
// The per-row counts are independent read-only lookups and run through a
// bounded group, interleaving freely.
func (s *Server) joinCandidateCounts(jobs []store.Job) []JobWithCount {
	rows := make([]JobWithCount, len(jobs))
	gr := syncs.NewSizedGroup(joinConcurrency)
	for i, job := range jobs {
		rows[i] = JobWithCount{Job: job}
		gr.Go(func(context.Context) {
			count, err := s.store.CountCandidatesByJob(job.ID)
			if err != nil {
				log.Printf("[WARN] failed to count candidates for job %s: %v", job.ID, err)
				return
			}
			rows[i].CandidateCount = count
		})
	}
	gr.Wait()
	return rows
}

// searchJobs filters by case-insensitive substring over title, department,
// location or any tag, OR semantics across fields
func searchJobs(jobs []store.Job, term string) []store.Job {
	if term == "" {
		return jobs
	}
	needle := strings.ToLower(term)
	matches := func(job store.Job) bool {
		if strings.Contains(strings.ToLower(job.Title), needle) ||
			strings.Contains(strings.ToLower(job.Department), needle) ||
			strings.Contains(strings.ToLower(job.Location), needle) {
			return true
		}
		for _, tag := range job.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
		return false
	}

	filtered := make([]store.Job, 0, len(jobs))
	for _, job := range jobs {
		if matches(job) {
			filtered = append(filtered, job)
		}
	}
	return filtered
}

// filterJobs applies status and department filters, composed as AND.
// The sentinel "all" (or empty) disables a filter.
func filterJobs(jobs []store.Job, status, department string) []store.Job {
	filtered := make([]store.Job, 0, len(jobs))
	for _, job := range jobs {
		if status != "" && status != "all" && string(job.Status) != status {
			continue
		}
		if department != "" && department != "all" && job.Department != department {
			continue
		}
		filtered = append(filtered, job)
	}
	return filtered
}

// sortJobs sorts by the requested field. Absent values sort last regardless
// of direction; ties keep input order.
func sortJobs(jobs []store.Job, sortBy, sortOrder string) {
	desc := sortOrder == "desc"
	sort.SliceStable(jobs, func(i, j int) bool {
		a, aOK := sortValue(jobs[i], sortBy)
		b, bOK := sortValue(jobs[j], sortBy)
		if !aOK && !bOK {
			return false
		}
		if !aOK {
			return false // absent values go last
		}
		if !bOK {
			return true
		}
		if desc {
			return lessValue(b, a)
		}
		return lessValue(a, b)
	})
}

// sortValue extracts a comparable value for a sortable field, false when the
// field is absent on this record or unknown
func sortValue(job store.Job, field string) (any, bool) {
	switch field {
	case "title":
		return job.Title, true
	case "slug":
		return job.Slug, true
	case "status":
		return string(job.Status), true
	case "department":
		return job.Department, true
	case "location":
		return job.Location, true
	case "order":
		return float64(job.Order), true
	case "createdAt":
		return job.CreatedAt, !job.CreatedAt.IsZero()
	case "updatedAt":
		return job.UpdatedAt, !job.UpdatedAt.IsZero()
	}
	return nil, false
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Before(bv)
	}
	return false
}
