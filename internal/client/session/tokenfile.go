package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// FileTokenStore keeps the token as an oauth2.Token JSON document.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load returns "" when no token has been saved.
func (f *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filepath.Base(f.path), err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return "", fmt.Errorf("invalid %s: %w", filepath.Base(f.path), err)
	}
	return token.AccessToken, nil
}

// Save writes the token with mode 0600.
func (f *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	data, err := json.Marshal(oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

// Clear removes the token file; a missing file is not an error.
func (f *FileTokenStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
