package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/talentflow/talentflow/app/store"
)

// Client is a typed front for the API that dispatches requests in-process,
// straight into the handler chain. Requests still pass through the full
// middleware stack, including the latency and failure injection, so callers
// see the same behavior as over a real socket.
type Client struct {
	http *http.Client
	base string
}

// NewClient creates a client bound to the server's handler
func NewClient(s *Server) *Client {
	return &Client{
		http: &http.Client{Transport: handlerTransport{handler: s.Handler()}},
		base: "http://talentflow.local",
	}
}

// APIError carries the HTTP status and the server's error message.
// Status 0 means the request never got a response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// handlerTransport dispatches requests directly into an http.Handler
type handlerTransport struct {
	handler http.Handler
}

func (t handlerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	rec := &responseRecorder{status: http.StatusOK, header: http.Header{}}
	t.handler.ServeHTTP(rec, r)
	return &http.Response{
		StatusCode: rec.status,
		Status:     http.StatusText(rec.status),
		Header:     rec.header,
		Body:       io.NopCloser(bytes.NewReader(rec.body.Bytes())),
		Request:    r,
	}, nil
}

// responseRecorder is a minimal http.ResponseWriter capturing status, headers and body
type responseRecorder struct {
	status      int
	header      http.Header
	body        bytes.Buffer
	wroteHeader bool
}

func (r *responseRecorder) Header() http.Header { return r.header }

func (r *responseRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}

// request performs one API call. A non-2xx response decodes the {message}
// envelope into an *APIError; a 2xx response decodes the body into out when
// out is non-nil.
func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode >= http.StatusBadRequest {
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var envelope struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Message != "" {
			message = envelope.Message
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// JobsQuery holds the GET /api/jobs parameters, zero values are omitted
type JobsQuery struct {
	Search     string
	Status     string
	Department string
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

func (q JobsQuery) encode() string {
	v := url.Values{}
	setIf := func(name, value string) {
		if value != "" {
			v.Set(name, value)
		}
	}
	setIf("search", q.Search)
	setIf("status", q.Status)
	setIf("department", q.Department)
	setIf("sortBy", q.SortBy)
	setIf("sortOrder", q.SortOrder)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// GetJobs lists jobs with search, filters, sort and pagination
func (c *Client) GetJobs(ctx context.Context, query JobsQuery) (Page[JobWithCount], error) {
	var page Page[JobWithCount]
	err := c.request(ctx, http.MethodGet, "/api/jobs"+query.encode(), nil, &page)
	return page, err
}

// GetJob retrieves a single job with candidate stats
func (c *Client) GetJob(ctx context.Context, id string) (JobDetails, error) {
	var details JobDetails
	err := c.request(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &details)
	return details, err
}

// CreateJob creates a new job. Server-assigned fields (id, order,
// timestamps) in the argument are ignored.
func (c *Client) CreateJob(ctx context.Context, job store.Job) (store.Job, error) {
	var created store.Job
	err := c.request(ctx, http.MethodPost, "/api/jobs", job, &created)
	return created, err
}

// UpdateJob applies a partial update to a job
func (c *Client) UpdateJob(ctx context.Context, id string, patch store.JobPatch) (store.Job, error) {
	var job store.Job
	err := c.request(ctx, http.MethodPut, "/api/jobs/"+url.PathEscape(id), patch, &job)
	return job, err
}

// ReorderJob moves a job to a new position in the board ordering
func (c *Client) ReorderJob(ctx context.Context, id string, fromOrder, toOrder int) error {
	body := map[string]int{"fromOrder": fromOrder, "toOrder": toOrder}
	return c.request(ctx, http.MethodPatch, "/api/jobs/"+url.PathEscape(id)+"/reorder", body, nil)
}

// CandidatesQuery holds the GET /api/candidates parameters, zero values are omitted
type CandidatesQuery struct {
	Search   string
	Stage    string
	JobID    string
	Page     int
	PageSize int
}

func (q CandidatesQuery) encode() string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Stage != "" {
		v.Set("stage", q.Stage)
	}
	if q.JobID != "" {
		v.Set("jobId", q.JobID)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// GetCandidates lists candidates with search, stage and job filters
func (c *Client) GetCandidates(ctx context.Context, query CandidatesQuery) (Page[store.Candidate], error) {
	var page Page[store.Candidate]
	err := c.request(ctx, http.MethodGet, "/api/candidates"+query.encode(), nil, &page)
	return page, err
}

// GetCandidate retrieves a single candidate with its job joined in
func (c *Client) GetCandidate(ctx context.Context, id string) (CandidateDetails, error) {
	var details CandidateDetails
	err := c.request(ctx, http.MethodGet, "/api/candidates/"+url.PathEscape(id), nil, &details)
	return details, err
}

// UpdateCandidateStage moves a candidate to a new stage, recording a timeline entry
func (c *Client) UpdateCandidateStage(ctx context.Context, id string, stage store.Stage, note string) (store.Candidate, error) {
	var candidate store.Candidate
	body := map[string]string{"stage": string(stage), "note": note}
	err := c.request(ctx, http.MethodPatch, "/api/candidates/"+url.PathEscape(id)+"/stage", body, &candidate)
	return candidate, err
}

// GetKanban returns candidates grouped by stage, optionally for one job
func (c *Client) GetKanban(ctx context.Context, jobID string) (map[store.Stage][]store.Candidate, error) {
	path := "/api/candidates/kanban"
	if jobID != "" {
		path += "?jobId=" + url.QueryEscape(jobID)
	}
	var groups map[store.Stage][]store.Candidate
	err := c.request(ctx, http.MethodGet, path, nil, &groups)
	return groups, err
}

// GetAssessments lists assessments, optionally for one job
func (c *Client) GetAssessments(ctx context.Context, jobID string) ([]store.Assessment, error) {
	path := "/api/assessments"
	if jobID != "" {
		path += "?jobId=" + url.QueryEscape(jobID)
	}
	var assessments []store.Assessment
	err := c.request(ctx, http.MethodGet, path, nil, &assessments)
	return assessments, err
}

// CreateAssessmentRequest is the POST /api/assessments body
type CreateAssessmentRequest struct {
	JobID       string          `json:"jobId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Sections    []store.Section `json:"sections,omitempty"`
	TimeLimit   int             `json:"timeLimit,omitempty"`
}

// CreateAssessment creates a new assessment
func (c *Client) CreateAssessment(ctx context.Context, req CreateAssessmentRequest) (store.Assessment, error) {
	var assessment store.Assessment
	err := c.request(ctx, http.MethodPost, "/api/assessments", req, &assessment)
	return assessment, err
}

// SubmitResponse records a candidate's answers for an assessment
func (c *Client) SubmitResponse(ctx context.Context, assessmentID, candidateID string, answers map[string]any, status store.ResponseStatus) (store.AssessmentResponse, error) {
	var resp store.AssessmentResponse
	body := map[string]any{"candidateId": candidateID, "responses": answers}
	if status != "" {
		body["status"] = string(status)
	}
	err := c.request(ctx, http.MethodPost, "/api/assessments/"+url.PathEscape(assessmentID)+"/responses", body, &resp)
	return resp, err
}

// GetResponses lists responses for an assessment, optionally for one candidate
func (c *Client) GetResponses(ctx context.Context, assessmentID, candidateID string) ([]store.AssessmentResponse, error) {
	path := "/api/assessments/" + url.PathEscape(assessmentID) + "/responses"
	if candidateID != "" {
		path += "?candidateId=" + url.QueryEscape(candidateID)
	}
	var responses []store.AssessmentResponse
	err := c.request(ctx, http.MethodGet, path, nil, &responses)
	return responses, err
}
