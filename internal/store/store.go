// Package store provides directory-backed access to trajectory files:
// listing, transparent decompression, collection metadata and change
// watching.
package store

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/arsalan924/trajlens/internal/trajectory"
)

var (
	// ErrNotFound is returned when the named trajectory does not exist.
	ErrNotFound = errors.New("trajectory not found")
	// ErrBadName is returned for names that are not plain trajectory file
	// names (path separators, dotfiles, unknown extensions).
	ErrBadName = errors.New("invalid trajectory name")
)

// trajSuffixes are the recognized trajectory file extensions, optionally
// compressed.
var trajSuffixes = []string{
	".traj", ".traj.gz", ".traj.br",
	".json", ".json.gz", ".json.br",
}

// labelFiles are sidecar files whose first line names the collection.
var labelFiles = []string{"directory_info", "label"}

// Store reads trajectory files from a single directory.
type Store struct {
	dir    string
	logger *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates a store over dir. The directory must exist.
func New(dir string, logger *zap.Logger) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open trajectory dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open trajectory dir: %s is not a directory", dir)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory this store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// List returns the sorted names of all trajectory files in the directory.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list trajectories: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsTrajectoryName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Raw returns the decompressed bytes of the named trajectory file.
func (s *Store) Raw(name string) ([]byte, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrBadName, name)
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open trajectory: %w", err)
	}
	defer f.Close()

	reader, err := decodeReader(f, name)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Load reads, parses and normalizes the named trajectory.
func (s *Store) Load(name string) (*trajectory.Document, error) {
	data, err := s.Raw(name)
	if err != nil {
		return nil, err
	}

	doc, err := trajectory.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	doc.Normalize()
	return doc, nil
}

// Label returns a human-readable name for the collection: the first line of
// a sidecar file if one exists, otherwise the directory basename.
func (s *Store) Label() string {
	for _, lf := range labelFiles {
		data, err := os.ReadFile(filepath.Join(s.dir, lf))
		if err != nil {
			continue
		}
		if line := firstLine(string(data)); line != "" {
			return line
		}
	}
	return filepath.Base(s.dir)
}

// decodeReader wraps r with a decompressor chosen by file extension.
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(name, ".br"):
		return brotli.NewReader(r), nil
	}
	return r, nil
}

// IsTrajectoryName reports whether name looks like a trajectory file.
func IsTrajectoryName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	for _, suffix := range trajSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func validName(name string) bool {
	if name == "" || filepath.Base(name) != name {
		return false
	}
	return IsTrajectoryName(name)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
