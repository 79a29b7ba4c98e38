package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// FileKeyring persists one session's keys as a JSON file under a directory.
// Every method tolerates a missing or unwritable directory; errors are
// returned for the caller to log and ignore.
type FileKeyring struct {
	mu   sync.Mutex
	path string
}

// NewFileKeyring returns a keyring backed by dir/<id>.json.
func NewFileKeyring(dir, id string) *FileKeyring {
	return &FileKeyring{path: filepath.Join(dir, id+".json")}
}

func (k *FileKeyring) load() map[string]string {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return map[string]string{}
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return map[string]string{}
	}
	return values
}

func (k *FileKeyring) save(values map[string]string) error {
	if len(values) == 0 {
		err := os.Remove(k.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(k.path, data, 0o600)
}

// Read returns the stored value for key, if any.
func (k *FileKeyring) Read(key string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.load()[key]
	return v, ok
}

// Write stores key=value.
func (k *FileKeyring) Write(key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	values := k.load()
	values[key] = value
	return k.save(values)
}

// Delete removes key. Deleting an absent key is not an error.
func (k *FileKeyring) Delete(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	values := k.load()
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return k.save(values)
}
