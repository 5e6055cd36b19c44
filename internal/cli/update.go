package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// NoUpdateCheckEnv disables the release check when set to 1.
const NoUpdateCheckEnv = "TMUXMON_NO_UPDATE_CHECK"

const (
	defaultReleasesURL = "https://api.github.com/repos/rileyhilliard/tmuxmon/releases/latest"

	// updateCheckCacheTTL is how long a fetched release is trusted
	updateCheckCacheTTL = 24 * time.Hour

	updateCheckTimeout = 3 * time.Second
)

// releaseCache is the on-disk record of the last release check.
type releaseCache struct {
	LatestVersion string    `json:"latest_version"`
	CheckedAt     time.Time `json:"checked_at"`
}

// updateChecker asks GitHub for the newest release at most once a day.
type updateChecker struct {
	url     string
	current string
	client  *http.Client
	now     func() time.Time
}

func newUpdateChecker(current string) *updateChecker {
	return &updateChecker{
		url:     defaultReleasesURL,
		current: current,
		client:  &http.Client{Timeout: updateCheckTimeout},
		now:     time.Now,
	}
}

// Latest returns the newest release tag when it is newer than the running
// version, and "" otherwise. Network and cache failures are silent.
func (u *updateChecker) Latest(ctx context.Context) string {
	if os.Getenv(NoUpdateCheckEnv) == "1" {
		return ""
	}

	latest := ""
	if c, err := u.readCache(); err == nil && u.now().Sub(c.CheckedAt) < updateCheckCacheTTL {
		latest = c.LatestVersion
	} else {
		fetched, err := u.fetch(ctx)
		if err != nil {
			return ""
		}
		_ = u.writeCache(releaseCache{LatestVersion: fetched, CheckedAt: u.now()})
		latest = fetched
	}

	if isNewerVersion(u.current, latest) {
		return latest
	}
	return ""
}

func (u *updateChecker) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "tmuxmon")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("github api returned %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	if release.TagName == "" {
		return "", fmt.Errorf("release has no tag")
	}
	return release.TagName, nil
}

// cachePath is $XDG_CACHE_HOME/tmuxmon/update-check, falling back to ~/.cache.
func cachePath() (string, error) {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, "tmuxmon", "update-check"), nil
}

func (u *updateChecker) readCache() (*releaseCache, error) {
	path, err := cachePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c releaseCache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (u *updateChecker) writeCache(c releaseCache) error {
	path, err := cachePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// isNewerVersion compares dotted versions numerically, ignoring a leading v
// and any pre-release suffix. Dev builds never report updates.
func isNewerVersion(current, latest string) bool {
	cur, latest := strings.TrimPrefix(current, "v"), strings.TrimPrefix(latest, "v")
	if cur == "" || cur == "dev" || latest == "" {
		return false
	}

	a, b := versionParts(cur), versionParts(latest)
	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			return y > x
		}
	}
	return false
}

func versionParts(v string) []int {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	var parts []int
	for _, field := range strings.Split(v, ".") {
		n, err := strconv.Atoi(field)
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}

// printUpdateNotice tells the user about a newer release, if any.
func printUpdateNotice(ctx context.Context, w io.Writer) {
	latest := newUpdateChecker(version).Latest(ctx)
	if latest == "" {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "A new version is available: %s\n", formatVersion(latest))
	fmt.Fprintln(w, "Update with: go install github.com/rileyhilliard/tmuxmon/cmd/tmuxmon@latest")
}
