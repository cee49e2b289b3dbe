package journal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/loqalabs/loqa-speech/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeralIsNoop(t *testing.T) {
	cfg := config.JournalConfig{RetentionMode: "ephemeral"}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Record(context.Background(), Entry{ID: "x", Mode: "buffered"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	entries, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if entries != nil {
		t.Fatalf("expected no entries from ephemeral journal, got %d", len(entries))
	}
}

func TestRecordAndRecent(t *testing.T) {
	cfg := config.JournalConfig{Path: filepath.Join(t.TempDir(), "journal.db"), RetentionMode: "persistent"}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	entry := Entry{
		ID:         "req-1",
		Mode:       "buffered",
		Voice:      "en-US-ChristopherNeural",
		Format:     "mp3",
		TextChars:  11,
		Status:     "ok",
		DurationMS: 42,
	}
	if err := s.Record(context.Background(), entry); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != "req-1" || entries[0].Voice != "en-US-ChristopherNeural" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestPruneByDaysAndRecords(t *testing.T) {
	cfg := config.JournalConfig{
		Path:          filepath.Join(t.TempDir(), "journal.db"),
		RetentionMode: "persistent",
		RetentionDays: 1,
		MaxRecords:    1,
	}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	s.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := s.Record(context.Background(), Entry{ID: "old", Mode: "buffered"}); err != nil {
		t.Fatalf("record old: %v", err)
	}

	s.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := s.Record(context.Background(), Entry{ID: "new", Mode: "stream"}); err != nil {
		t.Fatalf("record new: %v", err)
	}
	if err := s.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	entries, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "new" {
		t.Fatalf("expected only the new entry to survive, got %+v", entries)
	}
}
