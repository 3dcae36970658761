// Package cache keeps short-lived copies of portal responses on disk so
// repeated lookups such as listing searches skip the network.
//
// Each entry is one JSON file named after its resource and a hash of the
// portal URL and credential profile. RP_NO_CACHE disables reads and writes.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultTTL = 5 * time.Minute
	EnvNoCache = "RP_NO_CACHE"

	hashLen = 16
)

// Key scopes a cache entry.
type Key struct {
	Resource string
	BaseURL  string
	Profile  string
}

func (k Key) filename() string {
	sum := sha256.Sum256([]byte(k.BaseURL + "\x00" + k.Profile))
	return fmt.Sprintf("%s-%s.json", sanitize(k.Resource), hex.EncodeToString(sum[:])[:hashLen])
}

type entry[T any] struct {
	SavedAt time.Time `json:"savedAt"`
	Value   T         `json:"value"`
}

// Store caches one value of type T.
type Store[T any] struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// New returns the store for key under dir. A ttl of zero or less means
// DefaultTTL.
func New[T any](dir string, key Key, ttl time.Duration) *Store[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store[T]{path: filepath.Join(dir, key.filename()), ttl: ttl, now: time.Now}
}

// Path is the file backing the store.
func (s *Store[T]) Path() string { return s.path }

// Load returns the cached value. ok is false when the entry is missing,
// unreadable, expired, or caching is disabled.
func (s *Store[T]) Load() (value T, ok bool) {
	if disabled() {
		return value, false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return value, false
	}
	var e entry[T]
	if err := json.Unmarshal(data, &e); err != nil {
		return value, false
	}
	if s.now().Sub(e.SavedAt) > s.ttl {
		return value, false
	}
	return e.Value, true
}

// Save writes value atomically. It is a no-op when caching is disabled.
func (s *Store[T]) Save(value T) error {
	if disabled() {
		return nil
	}
	data, err := json.Marshal(entry[T]{SavedAt: s.now(), Value: value})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}

// Remove deletes the entry. A missing entry is not an error.
func (s *Store[T]) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// File describes one cache entry on disk.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Files lists the cache entries in dir. A missing dir has no entries.
func Files(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []File{}, nil
	}
	if err != nil {
		return nil, err
	}
	files := []File{}
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: e.Name(), Size: info.Size()})
	}
	return files, nil
}

// Purge removes every cache entry in dir and reports how many were removed.
// Other files in dir are left alone.
func Purge(dir string) (int, error) {
	files, err := Files(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if err := os.Remove(filepath.Join(dir, f.Name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// DefaultDir returns the rentportal-cli directory under the user cache dir.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "rentportal-cli"), nil
}

func disabled() bool {
	return os.Getenv(EnvNoCache) != ""
}

// sanitize makes a resource name usable as a filename prefix.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "cache"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '.':
			return '_'
		}
		return r
	}, s)
}

// isCacheFilename matches "<resource>-<16 hex>.json".
func isCacheFilename(name string) bool {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return false
	}
	i := strings.LastIndexByte(base, '-')
	if i <= 0 || len(base)-i-1 != hashLen {
		return false
	}
	_, err := hex.DecodeString(base[i+1:])
	return err == nil
}
