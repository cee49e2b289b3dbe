package artifact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), newLogger())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func writeArtifact(t *testing.T, s *Store, format string, data []byte) Artifact {
	t.Helper()
	art, err := s.Create(format)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := os.WriteFile(art.Path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return art
}

func TestCreateAllocatesDistinctIdentifiers(t *testing.T) {
	s := newStore(t)
	a, err := s.Create("mp3")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := s.Create("mp3")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct identifiers, both %q", a.ID)
	}
	if s.Exists(a.ID) {
		t.Fatal("create must not touch the filesystem")
	}
}

func TestOpenRoundTrip(t *testing.T) {
	s := newStore(t)
	art := writeArtifact(t, s, "mp3", []byte("audio bytes"))

	if !s.Exists(art.ID) {
		t.Fatal("expected artifact to exist after write")
	}
	rc, err := s.Open(art.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestOpenMissingArtifact(t *testing.T) {
	s := newStore(t)
	if _, err := s.Open("no-such-artifact.mp3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s := newStore(t)
	if err := s.Delete("already-gone.wav"); err != nil {
		t.Fatalf("expected no-op delete, got %v", err)
	}
}

func TestOpenIgnoresPathTraversal(t *testing.T) {
	s := newStore(t)
	if _, err := s.Open("../../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for traversal attempt, got %v", err)
	}
}

func TestContentTypePassThroughLabel(t *testing.T) {
	// Content type follows the requested extension only; the store never
	// inspects or re-encodes the bytes.
	if got := ContentType("abc.mp3"); got != "audio/mpeg" {
		t.Fatalf("expected audio/mpeg, got %q", got)
	}
	if got := ContentType("abc.wav"); got != "audio/wav" {
		t.Fatalf("expected audio/wav, got %q", got)
	}
	if got := ContentType("abc.ogg"); got != "audio/wav" {
		t.Fatalf("expected audio/wav fallback, got %q", got)
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	s := newStore(t)
	old := writeArtifact(t, s, "mp3", []byte("old"))
	fresh := writeArtifact(t, s, "wav", []byte("fresh"))

	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old.Path, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := s.Sweep(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if s.Exists(old.ID) {
		t.Fatal("expected expired artifact removed")
	}
	if !s.Exists(fresh.ID) {
		t.Fatal("expected fresh artifact kept")
	}
}

func TestSweepHonoursClock(t *testing.T) {
	s := newStore(t)
	art := writeArtifact(t, s, "mp3", []byte("data"))

	s.clock = func() time.Time { return time.Now().Add(30 * time.Minute) }
	removed, err := s.Sweep(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 0 || !s.Exists(art.ID) {
		t.Fatal("artifact within max age must survive the sweep")
	}

	s.clock = func() time.Time { return time.Now().Add(2 * time.Hour) }
	removed, err = s.Sweep(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 || s.Exists(art.ID) {
		t.Fatal("artifact past max age must be reclaimed")
	}
}
