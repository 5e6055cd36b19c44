package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func releaseServer(t *testing.T, tag string, hits *int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		assert.Equal(t, "tmuxmon", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]string{"tag_name": tag}))
	}))
	t.Cleanup(server.Close)
	return server
}

func testChecker(t *testing.T, current, url string) *updateChecker {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(NoUpdateCheckEnv, "")
	u := newUpdateChecker(current)
	u.url = url
	return u
}

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"1.0.0", "1.1.0", true},
		{"v1.0.0", "v1.0.1", true},
		{"1.9.0", "1.10.0", true},
		{"1.10.0", "1.9.0", false},
		{"1.0.0", "1.0.0", false},
		{"1.0", "1.0.1", true},
		{"1.0.0-beta.1", "1.0.0", false},
		{"dev", "9.9.9", false},
		{"", "1.0.0", false},
		{"1.0.0", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.current+"→"+tt.latest, func(t *testing.T) {
			assert.Equal(t, tt.want, isNewerVersion(tt.current, tt.latest))
		})
	}
}

func TestUpdateChecker_FetchesAndCaches(t *testing.T) {
	hits := 0
	server := releaseServer(t, "v1.5.0", &hits)
	u := testChecker(t, "1.0.0", server.URL)

	assert.Equal(t, "v1.5.0", u.Latest(context.Background()))
	assert.Equal(t, "v1.5.0", u.Latest(context.Background()))
	assert.Equal(t, 1, hits, "second call served from cache")

	c, err := u.readCache()
	require.NoError(t, err)
	assert.Equal(t, "v1.5.0", c.LatestVersion)
}

func TestUpdateChecker_StaleCacheRefetches(t *testing.T) {
	hits := 0
	server := releaseServer(t, "v2.0.0", &hits)
	u := testChecker(t, "1.0.0", server.URL)

	require.NoError(t, u.writeCache(releaseCache{LatestVersion: "v1.5.0", CheckedAt: time.Now().Add(-48 * time.Hour)}))

	assert.Equal(t, "v2.0.0", u.Latest(context.Background()))
	assert.Equal(t, 1, hits)
}

func TestUpdateChecker_UpToDate(t *testing.T) {
	hits := 0
	server := releaseServer(t, "v1.0.0", &hits)
	u := testChecker(t, "1.0.0", server.URL)

	assert.Empty(t, u.Latest(context.Background()))
}

func TestUpdateChecker_Disabled(t *testing.T) {
	hits := 0
	server := releaseServer(t, "v9.0.0", &hits)
	u := testChecker(t, "1.0.0", server.URL)
	t.Setenv(NoUpdateCheckEnv, "1")

	assert.Empty(t, u.Latest(context.Background()))
	assert.Zero(t, hits)
}

func TestUpdateChecker_ServerErrorIsSilent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	u := testChecker(t, "1.0.0", server.URL)

	assert.Empty(t, u.Latest(context.Background()))
	_, err := u.readCache()
	assert.Error(t, err, "failures are not cached")
}

func TestUpdateChecker_InvalidCache(t *testing.T) {
	u := testChecker(t, "1.0.0", "http://127.0.0.1:0")
	path, err := cachePath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err = u.readCache()
	assert.Error(t, err)
}

func TestCachePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	path, err := cachePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tmuxmon", "update-check"), path)
}
