package sequence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/internal/httpclient"
)

func TestResolvePath_Relative(t *testing.T) {
	resolved, remote, err := ResolvePath("sequences.yaml")
	require.NoError(t, err)
	assert.False(t, remote)
	assert.True(t, filepath.IsAbs(resolved))
	assert.True(t, strings.HasSuffix(resolved, "/sequences.yaml"))
}

func TestResolvePath_Tilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	resolved, remote, err := ResolvePath("~/docs/sequences.yaml")
	require.NoError(t, err)
	assert.False(t, remote)
	assert.Equal(t, filepath.Join(home, "docs", "sequences.yaml"), resolved)
}

func TestResolvePath_Remote(t *testing.T) {
	resolved, remote, err := ResolvePath("https://example.com/macros/sequences.yaml")
	require.NoError(t, err)
	assert.True(t, remote)
	assert.Contains(t, resolved, "https://")
}

func TestFetch_LocalPassthrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sequences.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: []\n"), 0644))

	got, err := Fetch(context.Background(), path, filepath.Join(dir, "cache"))
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// Local paths never populate the cache.
	_, err = os.Stat(filepath.Join(dir, "cache"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetch_RemoteDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote:\n  - wait 0.1\n"))
	}))
	defer server.Close()

	orig := fetchClient
	fetchClient = httpclient.WrapClient(server.Client())
	t.Cleanup(func() { fetchClient = orig })

	dir := t.TempDir()
	got, err := Fetch(context.Background(), server.URL+"/macros/sequences.yaml", filepath.Join(dir, "cache"))
	require.NoError(t, err)
	assert.Equal(t, "sequences.yaml", filepath.Base(got))

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), "remote:")
}

func TestFetch_PrivateAddressRefused(t *testing.T) {
	_, err := Fetch(context.Background(), "http://169.254.169.254/sequences.yaml", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to fetch")
}

func TestFetchName(t *testing.T) {
	assert.Equal(t, "seqs.json", fetchName("https://example.com/a/b/seqs.json"))
	assert.Equal(t, "sequences.yaml", fetchName("https://example.com"))
	assert.Equal(t, "sequences.yaml", fetchName("https://example.com/"))
}
