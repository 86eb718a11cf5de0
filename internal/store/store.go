package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/raffaelramalhorosa/podcast-archiver/internal/logging"
)

const lockFileName = ".podarchive.lock"

// ErrLocked is returned by Lock when another run holds the archive.
var ErrLocked = errors.New("archive is locked by another run")

// Store is the archive root on disk: snapshots live directly under the root
// and media files under the media subdirectory. Files are replaced whole,
// never appended to or merged.
type Store struct {
	root     string
	mediaDir string
	lock     *flock.Flock
	logger   *slog.Logger
}

// New returns a Store rooted at root with media kept in root/mediaDir.
// Directories are not touched until Init is called.
func New(root, mediaDir string, logger *slog.Logger) (*Store, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve archive root %s: %w", root, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		root:     absRoot,
		mediaDir: filepath.Join(absRoot, mediaDir),
		lock:     flock.New(filepath.Join(absRoot, lockFileName)),
		logger:   logger.With("component", "store"),
	}, nil
}

// ---------- Layout ----------

// Init creates the archive root and media subdirectory if missing.
// It is safe to call on every run.
func (s *Store) Init() error {
	for _, dir := range []string{s.root, s.mediaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	s.logger.Debug("archive layout ready", "root", s.root, "media", s.mediaDir)
	return nil
}

// Root returns the absolute archive root.
func (s *Store) Root() string { return s.root }

// MediaDir returns the absolute media subdirectory.
func (s *Store) MediaDir() string { return s.mediaDir }

// Path resolves filename under the archive root.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.root, filename)
}

// MediaPath resolves name under the media subdirectory.
func (s *Store) MediaPath(name string) string {
	return filepath.Join(s.mediaDir, name)
}

// Exists reports whether a regular file is present at path.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// ---------- Locking ----------

// Lock takes the single-writer lock on the archive root. Init must have run.
func (s *Store) Lock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire archive lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, s.lock.Path())
	}
	return nil
}

// Unlock releases the archive lock.
func (s *Store) Unlock() error {
	return s.lock.Unlock()
}

// ---------- Writing ----------

// Payload is a value to persist, tagged with how it must be serialized.
// Build one with Structured or Raw.
type Payload struct {
	structured bool
	value      any
	raw        []byte
}

// Structured marks v for JSON serialization.
func Structured(v any) Payload {
	return Payload{structured: true, value: v}
}

// Raw marks data to be written verbatim.
func Raw(data []byte) Payload {
	return Payload{raw: data}
}

// Write persists p to root/filename, replacing any existing file, and returns
// the absolute path written.
func (s *Store) Write(p Payload, filename string) (string, error) {
	data := p.raw
	if p.structured {
		encoded, err := json.MarshalIndent(p.value, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", filename, err)
		}
		data = append(encoded, '\n')
	}

	path := s.Path(filename)
	if err := writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return "", err
	}

	kind := "raw"
	if p.structured {
		kind = "json"
	}
	s.logger.Info("archive file written", "path", path, "kind", kind, "bytes", len(data))
	return path, nil
}

// WriteStream copies r into path, replacing any existing file. The file only
// appears once the copy has fully succeeded.
func (s *Store) WriteStream(path string, r io.Reader) (int64, error) {
	var written int64
	err := writeAtomic(path, func(w io.Writer) error {
		n, err := io.Copy(w, r)
		written = n
		return err
	})
	return written, err
}

// writeAtomic fills a temp file next to path and renames it into place.
func writeAtomic(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}
