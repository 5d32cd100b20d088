package sequence

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	getter "github.com/hashicorp/go-getter"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/internal/httpclient"
)

// fetchClient guards remote document downloads. Tests swap it for an
// unprotected client so httptest servers on loopback stay reachable.
var fetchClient = httpclient.NewSaferClient(30 * time.Second)

// ResolvePath expands a document path using go-getter detection.
// Handles ~, relative paths, and file:// URLs. The remote result
// reports whether the source needs fetching rather than direct reads.
func ResolvePath(path string) (resolved string, remote bool, err error) {
	// Tilde expansion first (go-getter doesn't do this)
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false, errors.Wrap(err, "failed to get home directory")
		}
		path = filepath.Join(home, path[2:])
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false, errors.Wrap(err, "failed to get home directory")
		}
		return home, false, nil
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(path, pwd, getter.Detectors)
	if err != nil {
		return "", false, errors.Wrap(err, "invalid document path")
	}

	u, err := url.Parse(detected)
	if err != nil {
		return "", false, errors.Wrap(err, "failed to parse document path")
	}

	switch u.Scheme {
	case "file":
		return u.Path, false, nil
	case "":
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", false, errors.Wrap(err, "failed to make absolute path")
		}
		return abs, false, nil
	default:
		return detected, true, nil
	}
}

// Fetch makes the sequence document at src available locally and
// returns its path. Local paths and file:// URLs resolve in place;
// remote sources (http, git, s3 and the other go-getter schemes)
// download into cacheDir.
func Fetch(ctx context.Context, src, cacheDir string) (string, error) {
	resolved, remote, err := ResolvePath(src)
	if err != nil {
		return "", err
	}
	if !remote {
		return resolved, nil
	}

	// Plain http(s) sources go through the SSRF check up front so a
	// document URL cannot be pointed at private ranges.
	if u, perr := url.Parse(resolved); perr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if _, err := fetchClient.ValidateURL(resolved); err != nil {
			return "", errors.Wrapf(err, "refusing to fetch sequence document %s", src)
		}
	}

	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return "", errors.Wrapf(err, "failed to create document cache %s", cacheDir)
	}

	dst := filepath.Join(cacheDir, fetchName(resolved))
	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     dst,
		Mode:    getter.ClientModeFile,
		Getters: fetchGetters(),
	}
	if err := client.Get(); err != nil {
		return "", errors.Wrapf(err, "failed to fetch sequence document %s", src)
	}
	return dst, nil
}

// fetchGetters routes http(s) through the hardened client and keeps
// the go-getter defaults for every other scheme.
func fetchGetters() map[string]getter.Getter {
	httpGetter := &getter.HttpGetter{
		Client: fetchClient.Client,
		Netrc:  true,
	}

	getters := make(map[string]getter.Getter, len(getter.Getters))
	for scheme, g := range getter.Getters {
		getters[scheme] = g
	}
	getters["http"] = httpGetter
	getters["https"] = httpGetter
	return getters
}

// fetchName picks a local filename for a fetched document.
func fetchName(detected string) string {
	u, err := url.Parse(detected)
	if err != nil {
		return "sequences.yaml"
	}
	base := filepath.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "sequences.yaml"
	}
	return base
}
