package keystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/weitblick/internal/model"
)

// FileStore keeps credentials in a yaml file readable by the owner only
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

func entryName(id model.ProviderID) string {
	return string(id) + "_api_key"
}

// Load reads the file. A missing file yields empty credentials; entries
// that fail validation are ignored.
func (s *FileStore) Load() (model.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	creds := model.Credentials{}
	for _, id := range model.AllProviders {
		value := strings.TrimSpace(entries[entryName(id)])
		if value == "" || Validate(id, value) != nil {
			continue
		}
		creds[id] = value
	}
	return creds, nil
}

// Set validates and stores a key
func (s *FileStore) Set(id model.ProviderID, key string) error {
	key = strings.TrimSpace(key)
	if err := Validate(id, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	entries[entryName(id)] = key
	return s.write(entries)
}

// Remove deletes a key
func (s *FileStore) Remove(id model.ProviderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := entries[entryName(id)]; !ok {
		return nil
	}
	delete(entries, entryName(id))
	return s.write(entries)
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	entries := map[string]string{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}
	return entries, nil
}

// write replaces the file atomically with mode 0600
func (s *FileStore) write(entries map[string]string) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal keys: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create keys dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".keys-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod keys file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write keys file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close keys file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace keys file: %w", err)
	}
	return nil
}
