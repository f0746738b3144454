package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentflow/talentflow/app/store"
)

// prepServer creates a server over a fresh store with injection disabled
func prepServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"),
		store.WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })

	srv, err := New(Config{Store: st, Version: "test",
		Rand: rand.New(rand.NewSource(42))}) //nolint:gosec // fixed seed for reproducible tests
	require.NoError(t, err)
	return srv, st
}

func TestServer_NewNoStore(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestServer_Ping(t *testing.T) {
	srv, _ := prepServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ErrorInjection(t *testing.T) {
	srv, _ := prepServer(t)
	srv.errorRate = 1 // every request fails

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Internal server error", body["message"])
}

func TestServer_ErrorInjectionDisabled(t *testing.T) {
	srv, _ := prepServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// zero error rate never fails
	for i := 0; i < 20; i++ {
		resp, err := http.Get(ts.URL + "/api/jobs")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestServer_LatencyInjection(t *testing.T) {
	srv, _ := prepServer(t)
	srv.minDelay, srv.maxDelay = 30*time.Millisecond, 60*time.Millisecond

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	st := time.Now()
	resp, err := http.Get(ts.URL + "/api/jobs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.GreaterOrEqual(t, time.Since(st), 30*time.Millisecond)
}

func TestServer_RandomDelayBounds(t *testing.T) {
	srv, _ := prepServer(t)
	srv.minDelay, srv.maxDelay = 10*time.Millisecond, 50*time.Millisecond

	for i := 0; i < 100; i++ {
		d := srv.randomDelay()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 50*time.Millisecond)
	}

	srv.minDelay, srv.maxDelay = 10*time.Millisecond, 10*time.Millisecond
	assert.Equal(t, 10*time.Millisecond, srv.randomDelay(), "degenerate range yields the minimum")
}

func TestNewPage(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	tbl := []struct {
		name       string
		page, size int
		dataLen    int
		totalPages int
		first      int
	}{
		{"first page", 1, 10, 10, 3, 0},
		{"middle page", 2, 10, 10, 3, 10},
		{"last partial page", 3, 10, 5, 3, 20},
		{"past the end", 5, 10, 0, 3, 0},
		{"single page", 1, 100, 25, 1, 0},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			p := newPage(items, tt.page, tt.size)
			assert.Equal(t, 25, p.Total)
			assert.Equal(t, tt.totalPages, p.TotalPages)
			require.Len(t, p.Data, tt.dataLen)
			if tt.dataLen > 0 {
				assert.Equal(t, tt.first, p.Data[0])
			}
		})
	}

	t.Run("empty input", func(t *testing.T) {
		p := newPage([]string(nil), 1, 10)
		assert.NotNil(t, p.Data, "data is [] not null")
		assert.Equal(t, 0, p.Total)
		assert.Equal(t, 0, p.TotalPages)
	})
}

func TestIntParam(t *testing.T) {
	q := url.Values{"page": []string{"3"}, "bad": []string{"x"}, "negative": []string{"-1"}}
	assert.Equal(t, 3, intParam(q, "page", 1))
	assert.Equal(t, 1, intParam(q, "bad", 1))
	assert.Equal(t, 1, intParam(q, "negative", 1))
	assert.Equal(t, 10, intParam(q, "missing", 10))
}
