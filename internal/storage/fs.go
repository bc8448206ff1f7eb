package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrBadKey = errors.New("bad blob key")

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// path maps key under base. Keys are rooted first so ".." cannot escape.
func (s *FSStore) path(key string) (string, string, error) {
	clean := strings.TrimPrefix(filepath.Clean("/"+filepath.FromSlash(key)), string(filepath.Separator))
	if clean == "" || clean == "." {
		return "", "", ErrBadKey
	}
	return filepath.Join(s.base, clean), filepath.ToSlash(clean), nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, canon, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return canon, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	p, _, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}
