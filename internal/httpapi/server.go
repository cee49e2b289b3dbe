// Package httpapi maps the speech service onto the inbound HTTP surface.
// Requests reaching these handlers are assumed to be authenticated upstream.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/loqalabs/loqa-speech/internal/artifact"
	"github.com/loqalabs/loqa-speech/internal/journal"
	"github.com/loqalabs/loqa-speech/internal/speech"
)

// History exposes recent journal entries for the history endpoint.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

type Server struct {
	svc     *speech.Service
	store   *artifact.Store
	history History // optional
	log     *slog.Logger
}

func New(svc *speech.Service, store *artifact.Store, history History, log *slog.Logger) *Server {
	return &Server{
		svc:     svc,
		store:   store,
		history: history,
		log:     log.With(slog.String("component", "httpapi")),
	}
}

// Routes builds the full request mux. The metrics handler may be nil when the
// Prometheus exporter is unavailable.
func (s *Server) Routes(ready func() bool, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tts", s.handleTTS)
	mux.HandleFunc("POST /api/tts/stream", s.handleStream)
	mux.HandleFunc("GET /audio/{id}", s.handleAudio)
	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready == nil || ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}

type ttsRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

type ttsResponse struct {
	Success bool   `json:"success"`
	FileURL string `json:"file_url"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	art, err := s.svc.SynthesizeBuffered(r.Context(), req.Text, req.Voice, req.Format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ttsResponse{Success: true, FileURL: "/audio/" + art.ID})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	bridge, validated, err := s.svc.OpenStream(r.Context(), req.Text, req.Voice, req.Format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer bridge.Close()

	// Pull the first chunk before committing the response status, so an
	// immediate provider failure still maps to an HTTP error.
	first, err := bridge.Next()
	if err != nil && err != io.EOF {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType("."+string(validated.Format)))
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	write := func(data []byte) bool {
		if _, werr := w.Write(data); werr != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	if err == io.EOF {
		return
	}
	if !write(first) {
		return
	}
	for {
		data, err := bridge.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			// Headers are already on the wire; the stream ends
			// abnormally and the client sees truncation.
			s.log.Warn("stream terminated abnormally", slog.String("error", err.Error()))
			return
		}
		if !write(data) {
			return
		}
	}
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rc, err := s.store.Open(id)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Audio file not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", artifact.ContentType(id))
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Warn("serving artifact failed", slog.String("id", id), slog.String("error", err.Error()))
	}
}

// apiVoice matches the voice shape of the public catalog endpoint.
type apiVoice struct {
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	Locale      string `json:"locale"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := s.svc.Voices(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	out := make([]apiVoice, 0, len(voices))
	for _, v := range voices {
		out = append(out, apiVoice{
			Name:        v.ID,
			Gender:      v.Gender,
			Locale:      v.Locale,
			DisplayName: fmt.Sprintf("%s - %s (%s)", v.Locale, v.DisplayName, v.Gender),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"voices": out})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries := []journal.Entry{}
	if s.history != nil {
		recent, err := s.history.Recent(r.Context(), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		if recent != nil {
			entries = recent
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": entries})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if verr, ok := speech.IsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Detail, Code: verr.Code})
		return
	}
	writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
