package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Keys persisted in the credential file.
const (
	KeyClientID     = "client_id"
	KeyClientSecret = "client_secret"
	KeyAccessToken  = "access_token"
)

// AllKeys lists every key a full reset clears.
var AllKeys = []string{KeyClientID, KeyClientSecret, KeyAccessToken}

// Store persists string values across runs.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(keys ...string) error
}

// MissingError reports a required credential that is still empty after prompting.
type MissingError struct {
	Key string
}

func (e MissingError) Error() string {
	return fmt.Sprintf("%s is required but was not provided", e.Key)
}

// FileStore keeps credentials in a dotenv-formatted file. Every Set and
// Remove rewrites the file immediately.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

// Get returns the stored value for key, or "" if it is unset.
func (s *FileStore) Get(key string) (string, error) {
	values, err := s.load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// Set stores value under key.
func (s *FileStore) Set(key, value string) error {
	return s.update(func(values map[string]string) {
		values[key] = value
	})
}

// Remove clears the named keys and leaves the rest untouched.
func (s *FileStore) Remove(keys ...string) error {
	return s.update(func(values map[string]string) {
		for _, key := range keys {
			delete(values, key)
		}
	})
}

func (s *FileStore) load() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	return values, nil
}

// update applies fn to the current contents under the file lock and writes
// the result back with the atomic write pattern.
func (s *FileStore) update(fn func(map[string]string)) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	lock, err := acquireFileLock(s.path)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if releaseErr := lock.release(); releaseErr != nil {
			fmt.Fprintf(os.Stderr, "failed to release lock: %v\n", releaseErr)
		}
	}()

	values, err := s.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking every future run.
		values = map[string]string{}
	}
	fn(values)

	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if content != "" {
		content += "\n"
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		if removeErr := os.Remove(tempFile); removeErr != nil {
			return fmt.Errorf(
				"failed to rename temp file: %v; additionally failed to remove temp file: %w",
				err,
				removeErr,
			)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
