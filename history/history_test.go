package history

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err, "should create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func finishedRun(t *testing.T, store *Store, site string, newCount int) *Run {
	t.Helper()
	run, err := store.StartRun(site)
	require.NoError(t, err)
	run.OK = true
	run.New = newCount
	require.NoError(t, store.FinishRun(run))
	return run
}

func TestOpen_ExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store1, err := Open(path)
	require.NoError(t, err)
	finishedRun(t, store1, "hubeigov", 1)
	require.NoError(t, store1.Close())

	store2, err := Open(path)
	require.NoError(t, err)
	defer store2.Close()

	runs, err := store2.Runs(0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRuns_RoundTrip(t *testing.T) {
	store := createTestStore(t)

	run, err := store.StartRun("renmin")
	require.NoError(t, err)
	run.OK = true
	run.New, run.Skipped, run.Failed = 3, 4, 1
	require.NoError(t, store.FinishRun(run))

	runs, err := store.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, "renmin", got.Site)
	assert.True(t, got.OK)
	assert.Equal(t, 3, got.New)
	assert.Equal(t, 4, got.Skipped)
	assert.Equal(t, 1, got.Failed)
	require.NotNil(t, got.FinishedAt)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Millisecond)
}

func TestRuns_NewestFirstAndLimit(t *testing.T) {
	store := createTestStore(t)
	first := finishedRun(t, store, "hubeigov", 1)
	second := finishedRun(t, store, "hubeigov", 2)

	runs, err := store.Runs(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.RunID, runs[0].RunID)

	runs, err = store.Runs(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.RunID, runs[1].RunID)
}

func TestFinishRun_NotFound(t *testing.T) {
	store := createTestStore(t)
	run, err := store.StartRun("x")
	require.NoError(t, err)

	other := *run
	other.RunID[0] ^= 0xff
	assert.ErrorIs(t, store.FinishRun(&other), ErrRunNotFound)
}

func TestLastRuns_OnePerSite(t *testing.T) {
	store := createTestStore(t)
	finishedRun(t, store, "hubeigov", 1)
	latest := finishedRun(t, store, "hubeigov", 2)
	renmin := finishedRun(t, store, "renmin", 5)

	runs, err := store.LastRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, latest.RunID, runs[0].RunID)
	assert.Equal(t, renmin.RunID, runs[1].RunID)
}

func TestRecordPaper(t *testing.T) {
	store := createTestStore(t)
	run := finishedRun(t, store, "hubeigov", 1)

	saved, err := store.RecordPaper(run.RunID, Paper{
		Site:        "hubeigov",
		Category:    "政策",
		Title:       "关于印发某方案的通知",
		PublishTime: "2024-01-01",
		URL:         "https://www.hubei.gov.cn/a.shtml",
		FileName:    "政策-2024-01-01-关于印发某方案的通知.docx",
	})
	require.NoError(t, err)

	papers, err := store.RecentPapers(10)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, saved.PaperID, papers[0].PaperID)
	assert.Equal(t, run.RunID, papers[0].RunID)
	assert.Equal(t, "政策", papers[0].Category)
	assert.Equal(t, "政策-2024-01-01-关于印发某方案的通知.docx", papers[0].FileName)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := createTestStore(t)
	return NewAPIServer(store).SetupRouter(), store
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleRuns(t *testing.T) {
	router, store := setupTestRouter(t)
	finishedRun(t, store, "hubeigov", 1)
	finishedRun(t, store, "renmin", 2)

	w := get(t, router, "/api/v1/runs?limit=1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "renmin", resp.Runs[0].Site)
}

func TestHandleRuns_BadLimit(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := get(t, router, "/api/v1/runs?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestHandlePapers_Empty(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := get(t, router, "/api/v1/papers")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"papers":[],"total":0}`, w.Body.String())
}

func TestHandleStatus(t *testing.T) {
	router, store := setupTestRouter(t)
	finishedRun(t, store, "hubeigov", 1)
	finishedRun(t, store, "hubeigov", 3)

	w := get(t, router, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, 3, resp.Runs[0].New)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
