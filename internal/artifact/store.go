package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports an artifact absent at retrieval time.
var ErrNotFound = errors.New("artifact not found")

// Artifact is one persisted audio file. The store exclusively owns the file
// at Path for the artifact's lifetime.
type Artifact struct {
	ID   string
	Path string
}

// Store maps generated identifiers to audio files under a single root
// directory. Identifiers are random UUIDs, so concurrent creates never
// collide and no locking is needed beyond filesystem atomicity.
type Store struct {
	root  string
	log   *slog.Logger
	clock func() time.Time
}

func NewStore(root string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{
		root:  root,
		log:   log.With(slog.String("component", "artifact-store")),
		clock: time.Now,
	}, nil
}

// Create allocates an identifier and its backing path without creating the
// file; the caller writes the content and must not hand out the identifier
// until that write succeeds.
func (s *Store) Create(format string) (Artifact, error) {
	id := fmt.Sprintf("%s.%s", uuid.NewString(), format)
	return Artifact{ID: id, Path: filepath.Join(s.root, id)}, nil
}

func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Open returns the artifact content for streaming to a client.
func (s *Store) Open(id string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

// Delete removes an artifact. A missing file is a no-op, so the reaper and
// retrieval paths never trip over each other.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

// Sweep deletes every artifact older than maxAge and returns how many were
// removed. Per-entry failures are logged and skipped; one bad entry never
// aborts the scan.
func (s *Store) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("scan storage root: %w", err)
	}

	now := s.clock()
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.log.Warn("stat artifact failed", slog.String("name", entry.Name()), slog.String("error", err.Error()))
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		if err := s.Delete(entry.Name()); err != nil {
			s.log.Warn("delete artifact failed", slog.String("name", entry.Name()), slog.String("error", err.Error()))
			continue
		}
		removed++
	}
	return removed, nil
}

// ContentType derives the served media type from the identifier suffix. The
// store never re-encodes: the provider's bytes pass through labelled by the
// requested format.
func ContentType(id string) string {
	if strings.HasSuffix(id, ".mp3") {
		return "audio/mpeg"
	}
	return "audio/wav"
}

// path confines lookups to the storage root; identifiers carrying path
// separators resolve to their base name only.
func (s *Store) path(id string) string {
	return filepath.Join(s.root, filepath.Base(id))
}
