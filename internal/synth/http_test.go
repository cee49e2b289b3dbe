package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newProvider(t *testing.T, payload []byte, voices []VoiceDescriptor) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/synthesize", func(w http.ResponseWriter, r *http.Request) {
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.Text == "" {
			http.Error(w, "missing text", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	})
	mux.HandleFunc("/voices", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(voices)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSynthesizeFile(t *testing.T) {
	payload := []byte("provider audio bytes")
	srv := newProvider(t, payload, nil)
	s := NewHTTPSynth(srv.URL, 8)

	dest := filepath.Join(t.TempDir(), "out.mp3")
	if err := s.SynthesizeFile(context.Background(), "hello", "en-US-ChristopherNeural", dest); err != nil {
		t.Fatalf("synthesize file: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("unexpected file content: %q", got)
	}
}

func TestHTTPSynthesizeStreamMatchesFile(t *testing.T) {
	payload := bytes.Repeat([]byte("chunky audio "), 50)
	srv := newProvider(t, payload, nil)
	s := NewHTTPSynth(srv.URL, 32)

	chunks, errs := s.SynthesizeStream(context.Background(), "hello", "en-US-ChristopherNeural")
	streamed, streamErr := collect(t, chunks, errs)
	if streamErr != nil {
		t.Fatalf("stream error: %v", streamErr)
	}
	if !bytes.Equal(streamed, payload) {
		t.Fatalf("streamed bytes differ from provider payload")
	}
}

func TestHTTPSynthesizeErrorIsSynthesisError(t *testing.T) {
	srv := newProvider(t, nil, nil)
	s := NewHTTPSynth(srv.URL, 8)

	err := s.SynthesizeFile(context.Background(), "", "voice", filepath.Join(t.TempDir(), "out.mp3"))
	if err == nil {
		t.Fatal("expected provider rejection")
	}
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestHTTPListVoices(t *testing.T) {
	voices := []VoiceDescriptor{
		{ID: "fr-FR-DeniseNeural", Locale: "fr-FR", Gender: "Female", DisplayName: "Denise"},
		{ID: "en-US-ChristopherNeural", Locale: "en-US", Gender: "Male", DisplayName: "Christopher"},
	}
	srv := newProvider(t, nil, voices)
	s := NewHTTPSynth(srv.URL, 8)

	got, err := s.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("list voices: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(got))
	}
	if got[0].Locale != "en-US" {
		t.Fatalf("expected catalog sorted by locale, got %+v", got)
	}
}

func TestHTTPListVoicesFailureIsCatalogError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	s := NewHTTPSynth(srv.URL, 8)

	_, err := s.ListVoices(context.Background())
	if !errors.Is(err, ErrCatalog) {
		t.Fatalf("expected ErrCatalog, got %v", err)
	}
}
