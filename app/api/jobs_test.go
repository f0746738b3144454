package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentflow/talentflow/app/store"
)

// doJSON performs a request against the test server and decodes the response into out
func doJSON(t *testing.T, ts *httptest.Server, method, path string, body, out any) int {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func seedJobs(t *testing.T, st *store.Store, count int) []store.Job {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := make([]store.Job, count)
	for i := range jobs {
		status := store.JobStatusActive
		department := "Engineering"
		if i%3 == 0 {
			status = store.JobStatusArchived
		}
		if i%2 == 1 {
			department = "Design"
		}
		jobs[i] = store.Job{
			Title:      fmt.Sprintf("Job %02d", i),
			Slug:       fmt.Sprintf("job-%02d", i),
			Status:     status,
			Department: department,
			Location:   "Remote",
			Tags:       []string{"go"},
			Order:      i,
			CreatedAt:  base.AddDate(0, 0, i),
		}
	}
	require.NoError(t, st.BulkInsertJobs(jobs))
	return jobs
}

func TestServer_ListJobs(t *testing.T) {
	srv, st := prepServer(t)
	seedJobs(t, st, 25)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("pagination", func(t *testing.T) {
		var page Page[JobWithCount]
		code := doJSON(t, ts, http.MethodGet, "/api/jobs?page=1&pageSize=10", nil, &page)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, page.Data, 10)
		assert.Equal(t, 25, page.Total)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 10, page.PageSize)
	})

	t.Run("default sort createdAt desc", func(t *testing.T) {
		var page Page[JobWithCount]
		doJSON(t, ts, http.MethodGet, "/api/jobs?pageSize=25", nil, &page)
		require.Len(t, page.Data, 25)
		for i := 1; i < len(page.Data); i++ {
			assert.False(t, page.Data[i].CreatedAt.After(page.Data[i-1].CreatedAt))
		}
	})

	t.Run("sort by order asc", func(t *testing.T) {
		var page Page[JobWithCount]
		doJSON(t, ts, http.MethodGet, "/api/jobs?sortBy=order&sortOrder=asc&pageSize=25", nil, &page)
		require.Len(t, page.Data, 25)
		for i, job := range page.Data {
			assert.Equal(t, i, job.Order)
		}
	})

	t.Run("search by title", func(t *testing.T) {
		var page Page[JobWithCount]
		doJSON(t, ts, http.MethodGet, "/api/jobs?search=job+03", nil, &page)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Job 03", page.Data[0].Title)
	})

	t.Run("search matches tags", func(t *testing.T) {
		var page Page[JobWithCount]
		doJSON(t, ts, http.MethodGet, "/api/jobs?search=go&pageSize=30", nil, &page)
		assert.Equal(t, 25, page.Total)
	})

	t.Run("filters compose as AND", func(t *testing.T) {
		var page Page[JobWithCount]
		doJSON(t, ts, http.MethodGet, "/api/jobs?status=active&department=Engineering&pageSize=30", nil, &page)
		require.NotEmpty(t, page.Data)
		for _, job := range page.Data {
			assert.Equal(t, store.JobStatusActive, job.Status)
			assert.Equal(t, "Engineering", job.Department)
		}
	})

	t.Run("all sentinel disables filter", func(t *testing.T) {
		var page Page[JobWithCount]
		doJSON(t, ts, http.MethodGet, "/api/jobs?status=all&department=all&pageSize=30", nil, &page)
		assert.Equal(t, 25, page.Total)
	})

	t.Run("no matches yields empty page", func(t *testing.T) {
		var page Page[JobWithCount]
		doJSON(t, ts, http.MethodGet, "/api/jobs?search=nothing-matches-this", nil, &page)
		assert.Equal(t, 0, page.Total)
		assert.NotNil(t, page.Data)
		assert.Empty(t, page.Data)
	})
}

func TestServer_ListJobsCandidateCounts(t *testing.T) {
	srv, st := prepServer(t)
	jobs := seedJobs(t, st, 3)

	for i := 0; i < 4; i++ {
		c := store.Candidate{Name: fmt.Sprintf("Candidate %d", i), Email: fmt.Sprintf("c%d@example.com", i),
			JobID: jobs[0].ID}
		require.NoError(t, st.CreateCandidate(&c))
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var page Page[JobWithCount]
	doJSON(t, ts, http.MethodGet, "/api/jobs?sortBy=order&sortOrder=asc", nil, &page)
	require.Len(t, page.Data, 3)
	assert.Equal(t, 4, page.Data[0].CandidateCount)
	assert.Equal(t, 0, page.Data[1].CandidateCount)
}

func TestServer_GetJob(t *testing.T) {
	srv, st := prepServer(t)
	jobs := seedJobs(t, st, 2)
	for i := 0; i < 7; i++ {
		c := store.Candidate{Name: fmt.Sprintf("Candidate %d", i), Email: fmt.Sprintf("c%d@example.com", i),
			JobID: jobs[0].ID}
		require.NoError(t, st.CreateCandidate(&c))
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("found", func(t *testing.T) {
		var details JobDetails
		code := doJSON(t, ts, http.MethodGet, "/api/jobs/"+jobs[0].ID, nil, &details)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, jobs[0].Title, details.Title)
		assert.Equal(t, 7, details.CandidateCount)
		assert.Len(t, details.RecentCandidates, 5, "recent list is capped")
	})

	t.Run("not found", func(t *testing.T) {
		var body map[string]string
		code := doJSON(t, ts, http.MethodGet, "/api/jobs/no-such-id", nil, &body)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "job not found", body["message"])
	})
}

func TestServer_CreateJob(t *testing.T) {
	srv, st := prepServer(t)
	seedJobs(t, st, 3)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("created", func(t *testing.T) {
		var job store.Job
		code := doJSON(t, ts, http.MethodPost, "/api/jobs",
			map[string]any{"title": "Data Engineer", "department": "Engineering"}, &job)
		assert.Equal(t, http.StatusCreated, code)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, "data-engineer", job.Slug, "slug derived from title")
		assert.Equal(t, store.JobStatusActive, job.Status)
		assert.Equal(t, 3, job.Order, "appended at the end of the order")
	})

	t.Run("missing title", func(t *testing.T) {
		var body map[string]string
		code := doJSON(t, ts, http.MethodPost, "/api/jobs", map[string]any{"department": "Engineering"}, &body)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "title is required", body["message"])
	})
}

func TestServer_UpdateJob(t *testing.T) {
	srv, st := prepServer(t)
	jobs := seedJobs(t, st, 2)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("updated", func(t *testing.T) {
		var job store.Job
		code := doJSON(t, ts, http.MethodPut, "/api/jobs/"+jobs[0].ID,
			map[string]any{"title": "Renamed", "status": "archived"}, &job)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Renamed", job.Title)
		assert.Equal(t, store.JobStatusArchived, job.Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		var body map[string]string
		code := doJSON(t, ts, http.MethodPut, "/api/jobs/"+jobs[0].ID,
			map[string]any{"status": "paused"}, &body)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("not found", func(t *testing.T) {
		var body map[string]string
		code := doJSON(t, ts, http.MethodPut, "/api/jobs/no-such-id", map[string]any{"title": "x"}, &body)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestServer_ReorderJob(t *testing.T) {
	srv, st := prepServer(t)
	jobs := seedJobs(t, st, 5)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("moved", func(t *testing.T) {
		var body map[string]bool
		code := doJSON(t, ts, http.MethodPatch, "/api/jobs/"+jobs[0].ID+"/reorder",
			map[string]int{"fromOrder": 0, "toOrder": 3}, &body)
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, body["success"])

		moved, err := st.GetJob(jobs[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 3, moved.Order)

		listed, err := st.ListJobs()
		require.NoError(t, err)
		for i, job := range listed {
			assert.Equal(t, i, job.Order, "orders stay dense after the move")
		}
	})

	t.Run("not found", func(t *testing.T) {
		var body map[string]string
		code := doJSON(t, ts, http.MethodPatch, "/api/jobs/no-such-id/reorder",
			map[string]int{"fromOrder": 0, "toOrder": 1}, &body)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestSortJobs(t *testing.T) {
	mk := func(title string, updated time.Time) store.Job {
		return store.Job{Title: title, UpdatedAt: updated}
	}
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nulls last ascending", func(t *testing.T) {
		jobs := []store.Job{mk("a", time.Time{}), mk("b", ts), mk("c", ts.AddDate(0, 0, -1))}
		sortJobs(jobs, "updatedAt", "asc")
		assert.Equal(t, []string{"c", "b", "a"}, []string{jobs[0].Title, jobs[1].Title, jobs[2].Title})
	})

	t.Run("nulls last descending", func(t *testing.T) {
		jobs := []store.Job{mk("a", time.Time{}), mk("b", ts), mk("c", ts.AddDate(0, 0, -1))}
		sortJobs(jobs, "updatedAt", "desc")
		assert.Equal(t, []string{"b", "c", "a"}, []string{jobs[0].Title, jobs[1].Title, jobs[2].Title})
	})

	t.Run("unknown field keeps input order", func(t *testing.T) {
		jobs := []store.Job{mk("b", ts), mk("a", ts)}
		sortJobs(jobs, "bogus", "asc")
		assert.Equal(t, "b", jobs[0].Title)
	})
}
