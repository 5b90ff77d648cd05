package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arsalan924/trajlens/internal/store"
	"github.com/arsalan924/trajlens/internal/trajectory"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()

	doc := `{"trajectory":[{"response":"R1","action":"A1",` +
		`"observation":"obs with ![pic](data:image/png;base64,QUJD)",` +
		`"query":[{"role":"user","content":"hi"}]}],` +
		`"info":{"exit_status":"submitted"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run1.traj"), []byte(doc), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run2.traj"), []byte(`{"trajectory":[]}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "directory_info"), []byte("Test Collection"), 0644))

	st, err := store.New(dir, zap.NewNop())
	require.NoError(t, err)

	handler := NewHandler(NewHub(), st, trajectory.RenderOptions{MarkDemo: true}, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, dir
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHandleFiles(t *testing.T) {
	ts, _ := newTestServer(t)

	var names []string
	resp := getJSON(t, ts.URL+"/api/files", &names)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"run1.traj", "run2.traj"}, names)
}

func TestHandleTrajectory(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("raw document", func(t *testing.T) {
		var doc map[string]interface{}
		resp := getJSON(t, ts.URL+"/api/trajectory/run1.traj", &doc)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		steps, ok := doc["trajectory"].([]interface{})
		require.True(t, ok)
		require.Len(t, steps, 1)
	})

	t.Run("rendered tree", func(t *testing.T) {
		var rendered trajectory.RenderedTrajectory
		resp := getJSON(t, ts.URL+"/api/trajectory/run1.traj?rendered=1", &rendered)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		require.Len(t, rendered.Steps, 1)
		assert.Contains(t, rendered.Steps[0].Observation, "[IMAGE: pic]")
		require.Len(t, rendered.Steps[0].Images, 1)
		assert.Equal(t, "data:image/png;base64,QUJD", rendered.Steps[0].Images[0].DataURL)
		require.Len(t, rendered.Steps[0].Messages, 1)
		assert.Equal(t, "user", rendered.Steps[0].Messages[0].Role)
		assert.Equal(t, "hi", rendered.Steps[0].Messages[0].Content)
	})

	t.Run("unknown trajectory is 404", func(t *testing.T) {
		resp := getJSON(t, ts.URL+"/api/trajectory/missing.traj", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad name is 400", func(t *testing.T) {
		resp := getJSON(t, ts.URL+"/api/trajectory/nope.txt", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleDirectory(t *testing.T) {
	ts, _ := newTestServer(t)

	var meta map[string]string
	resp := getJSON(t, ts.URL+"/api/directory", &meta)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Test Collection", meta["label"])
}

func TestHandleStats(t *testing.T) {
	ts, _ := newTestServer(t)

	var stats store.Stats
	resp := getJSON(t, ts.URL+"/api/stats", &stats)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, stats.Trajectories)
	assert.Equal(t, 1, stats.ByExitStatus["submitted"])
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/files", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
