package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prepStore creates a store in a temp dir with a fixed clock
func prepStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"),
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestStore_New(t *testing.T) {
	s := prepStore(t)
	count, err := s.CountJobs()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_NewBadPath(t *testing.T) {
	_, err := New("/dev/null/not-a-dir/test.db")
	require.Error(t, err)
}

func TestStore_Clear(t *testing.T) {
	s := prepStore(t)
	require.NoError(t, s.CreateJob(&Job{Title: "Backend Engineer"}))
	listed, err := s.ListJobs()
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, s.CreateCandidate(&Candidate{Name: "Alex Kim", Email: "alex@example.com", JobID: listed[0].ID}))
	require.NoError(t, s.CreateAssessment(&Assessment{JobID: listed[0].ID, Title: "Screen"}))

	require.NoError(t, s.Clear())

	jobs, err := s.CountJobs()
	require.NoError(t, err)
	assert.Equal(t, 0, jobs)
	candidates, err := s.CountCandidates()
	require.NoError(t, err)
	assert.Equal(t, 0, candidates)
	assessments, err := s.CountAssessments()
	require.NoError(t, err)
	assert.Equal(t, 0, assessments)
}

func TestStore_Now(t *testing.T) {
	s := prepStore(t)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), s.Now())
}
