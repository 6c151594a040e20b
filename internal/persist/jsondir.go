package persist

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var _ Backend = (*JSONDir)(nil)

const jsonExt = ".json"

// JSONDir stores each key as one JSON file inside a directory.
type JSONDir struct {
	Directory string
}

// NewJSONDir creates a directory-backed store. An empty dir defaults to
// $UserConfigDir/chart-annotator/annotations.
func NewJSONDir(dir string) (*JSONDir, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			configDir = filepath.Join(os.Getenv("HOME"), ".config")
		}
		dir = filepath.Join(configDir, "chart-annotator", "annotations")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating store directory %s", dir)
	}
	return &JSONDir{Directory: dir}, nil
}

// path escapes the key down to [A-Za-z0-9-_.~%+] so names are valid on
// every OS. Keys contain ':' which Windows rejects.
func (s *JSONDir) path(key string) string {
	return filepath.Join(s.Directory, url.QueryEscape(key)+jsonExt)
}

func (s *JSONDir) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	if len(data) == 0 {
		return nil, ErrNotExist
	}
	return data, nil
}

func (s *JSONDir) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.Directory, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "writing %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "closing %s", key)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "replacing %s", key)
	}
	return nil
}

func (s *JSONDir) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func (s *JSONDir) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.Directory)
	if err != nil {
		return nil, errors.Wrap(err, "listing store directory")
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, jsonExt) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, jsonExt))
		if err != nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *JSONDir) Close() error { return nil }
