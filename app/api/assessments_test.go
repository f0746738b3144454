package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentflow/talentflow/app/store"
)

func TestServer_ListAssessments(t *testing.T) {
	srv, st := prepServer(t)
	jobs := seedJobs(t, st, 2)
	require.NoError(t, st.CreateAssessment(&store.Assessment{JobID: jobs[0].ID, Title: "A", IsActive: true}))
	require.NoError(t, st.CreateAssessment(&store.Assessment{JobID: jobs[1].ID, Title: "B", IsActive: true}))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("all", func(t *testing.T) {
		var assessments []store.Assessment
		code := doJSON(t, ts, http.MethodGet, "/api/assessments", nil, &assessments)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, assessments, 2)
	})

	t.Run("by job", func(t *testing.T) {
		var assessments []store.Assessment
		doJSON(t, ts, http.MethodGet, "/api/assessments?jobId="+jobs[0].ID, nil, &assessments)
		require.Len(t, assessments, 1)
		assert.Equal(t, "A", assessments[0].Title)
	})
}

func TestServer_CreateAssessment(t *testing.T) {
	srv, st := prepServer(t)
	jobs := seedJobs(t, st, 1)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("created active", func(t *testing.T) {
		var assessment store.Assessment
		code := doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
			"jobId": jobs[0].ID,
			"title": "Technical Screen",
			"sections": []map[string]any{{
				"id": "s1", "title": "Basics",
				"questions": []map[string]any{{"id": "q1", "type": "short-text", "title": "Name?", "required": true}},
			}},
		}, &assessment)
		assert.Equal(t, http.StatusCreated, code)
		assert.NotEmpty(t, assessment.ID)
		assert.True(t, assessment.IsActive, "new assessments are always active")
		require.Len(t, assessment.Sections, 1)
	})

	t.Run("sections default to empty list", func(t *testing.T) {
		var assessment store.Assessment
		code := doJSON(t, ts, http.MethodPost, "/api/assessments",
			map[string]any{"jobId": jobs[0].ID, "title": "Bare"}, &assessment)
		assert.Equal(t, http.StatusCreated, code)
		assert.NotNil(t, assessment.Sections)
		assert.Empty(t, assessment.Sections)
	})

	t.Run("missing fields", func(t *testing.T) {
		var body map[string]string
		code := doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{"title": "no job"}, &body)
		assert.Equal(t, http.StatusBadRequest, code)

		code = doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{"jobId": jobs[0].ID}, &body)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestServer_Responses(t *testing.T) {
	srv, st := prepServer(t)
	jobs := seedJobs(t, st, 1)
	assessment := store.Assessment{JobID: jobs[0].ID, Title: "Screen", IsActive: true}
	require.NoError(t, st.CreateAssessment(&assessment))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("submitted with defaults", func(t *testing.T) {
		var resp store.AssessmentResponse
		code := doJSON(t, ts, http.MethodPost, "/api/assessments/"+assessment.ID+"/responses",
			map[string]any{"candidateId": "c1", "responses": map[string]any{"q1": "answer"}}, &resp)
		assert.Equal(t, http.StatusCreated, code)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, store.ResponseInProgress, resp.Status)
		assert.Equal(t, map[string]any{"q1": "answer"}, resp.Responses)
	})

	t.Run("completed status", func(t *testing.T) {
		var resp store.AssessmentResponse
		code := doJSON(t, ts, http.MethodPost, "/api/assessments/"+assessment.ID+"/responses",
			map[string]any{"candidateId": "c2", "status": "completed"}, &resp)
		assert.Equal(t, http.StatusCreated, code)
		assert.Equal(t, store.ResponseCompleted, resp.Status)
		assert.False(t, resp.CompletedAt.IsZero())
	})

	t.Run("invalid status", func(t *testing.T) {
		var body map[string]string
		code := doJSON(t, ts, http.MethodPost, "/api/assessments/"+assessment.ID+"/responses",
			map[string]any{"candidateId": "c3", "status": "done"}, &body)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("missing candidate", func(t *testing.T) {
		var body map[string]string
		code := doJSON(t, ts, http.MethodPost, "/api/assessments/"+assessment.ID+"/responses",
			map[string]any{"responses": map[string]any{}}, &body)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unknown assessment", func(t *testing.T) {
		var body map[string]string
		code := doJSON(t, ts, http.MethodPost, "/api/assessments/no-such-id/responses",
			map[string]any{"candidateId": "c1"}, &body)
		assert.Equal(t, http.StatusNotFound, code)

		code = doJSON(t, ts, http.MethodGet, "/api/assessments/no-such-id/responses", nil, &body)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("listed with candidate filter", func(t *testing.T) {
		var responses []store.AssessmentResponse
		code := doJSON(t, ts, http.MethodGet, "/api/assessments/"+assessment.ID+"/responses", nil, &responses)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, responses, 2)

		doJSON(t, ts, http.MethodGet, "/api/assessments/"+assessment.ID+"/responses?candidateId=c1", nil, &responses)
		require.Len(t, responses, 1)
		assert.Equal(t, "c1", responses[0].CandidateID)
	})
}
