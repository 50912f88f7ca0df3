package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes images below a media root directory that is served at a media URL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: baseURL}
}

// Root is the directory files are written under.
func (s *LocalStore) Root() string {
	return s.root
}

// BaseURL is the URL prefix the files under Root are served at.
func (s *LocalStore) BaseURL() string {
	return s.baseURL
}

func (s *LocalStore) Save(ctx context.Context, namespace, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := NewKey(namespace, ext)
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return key, nil
}

func (s *LocalStore) URL(ref string) string {
	return joinURL(s.baseURL, ref)
}
