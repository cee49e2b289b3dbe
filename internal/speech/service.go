package speech

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/loqalabs/loqa-speech/internal/artifact"
	"github.com/loqalabs/loqa-speech/internal/config"
	"github.com/loqalabs/loqa-speech/internal/journal"
	"github.com/loqalabs/loqa-speech/internal/protocol"
	"github.com/loqalabs/loqa-speech/internal/stream"
	"github.com/loqalabs/loqa-speech/internal/synth"
)

// Recorder appends synthesis request entries to the journal.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Publisher emits lifecycle events on the bus.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Service runs the synthesis request pipeline: validation, dispatch to the
// provider, and delivery through either the artifact store or the streaming
// bridge.
type Service struct {
	cfg       config.SynthesisConfig
	synth     synth.Synthesizer
	store     *artifact.Store
	journal   Recorder  // optional
	publisher Publisher // optional
	log       *slog.Logger
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewService(cfg config.SynthesisConfig, synthesizer synth.Synthesizer, store *artifact.Store, rec Recorder, pub Publisher, log *slog.Logger) *Service {
	meter := otel.Meter("loqa-speech/speech")
	requests, err := meter.Int64Counter("speech.requests")
	if err != nil {
		log.Warn("failed to create request counter", slog.String("error", err.Error()))
	}
	duration, err := meter.Float64Histogram("speech.synthesis.duration_seconds")
	if err != nil {
		log.Warn("failed to create duration histogram", slog.String("error", err.Error()))
	}
	return &Service{
		cfg:       cfg,
		synth:     synthesizer,
		store:     store,
		journal:   rec,
		publisher: pub,
		log:       log.With(slog.String("component", "speech-service")),
		requests:  requests,
		duration:  duration,
	}
}

// Prepare normalizes and validates raw request fields. The voice catalog is
// fetched best-effort: a catalog failure degrades validation strictness but
// never blocks the request.
func (s *Service) Prepare(ctx context.Context, text, voice, format string) (Request, *ValidationError) {
	if voice == "" {
		voice = s.cfg.DefaultVoice
	}
	if format == "" {
		format = string(FormatMP3)
	}
	format = strings.ToLower(format)

	req, verr := Validate(text, voice, format, s.cfg.MaxTextLength, nil)
	if verr != nil {
		return Request{}, verr
	}
	if catalog := s.catalog(ctx); catalog != nil {
		if verr := CheckVoice(req.Voice, catalog); verr != nil {
			return Request{}, verr
		}
	}
	return req, nil
}

// catalog fetches the voice list for advisory validation; nil means the
// check should be skipped.
func (s *Service) catalog(ctx context.Context) []synth.VoiceDescriptor {
	voices, err := s.synth.ListVoices(ctx)
	if err != nil {
		s.log.Warn("voice catalog unavailable, skipping voice check", slog.String("error", err.Error()))
		return nil
	}
	return voices
}

// SynthesizeBuffered runs the buffered delivery path and returns the stored
// artifact. The identifier is handed out only after the provider write
// completed; a failed synthesis leaves no artifact behind.
func (s *Service) SynthesizeBuffered(ctx context.Context, text, voice, format string) (artifact.Artifact, error) {
	req, verr := s.Prepare(ctx, text, voice, format)
	if verr != nil {
		s.count(ctx, "buffered", "invalid")
		return artifact.Artifact{}, verr
	}

	art, err := s.store.Create(string(req.Format))
	if err != nil {
		s.count(ctx, "buffered", "error")
		return artifact.Artifact{}, err
	}

	synthCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.synth.SynthesizeFile(synthCtx, req.Text, req.Voice, art.Path); err != nil {
		if delErr := s.store.Delete(art.ID); delErr != nil {
			s.log.Warn("failed to remove partial artifact", slog.String("id", art.ID), slog.String("error", delErr.Error()))
		}
		s.count(ctx, "buffered", "error")
		s.record(ctx, journal.Entry{
			ID: art.ID, Mode: "buffered", Voice: req.Voice, Format: string(req.Format),
			TextChars: len(req.Text), Status: "error", Error: err.Error(),
			DurationMS: time.Since(start).Milliseconds(),
		})
		return artifact.Artifact{}, err
	}
	elapsed := time.Since(start)

	s.count(ctx, "buffered", "ok")
	if s.duration != nil {
		s.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("mode", "buffered")))
	}
	s.record(ctx, journal.Entry{
		ID: art.ID, Mode: "buffered", Voice: req.Voice, Format: string(req.Format),
		TextChars: len(req.Text), Status: "ok", DurationMS: elapsed.Milliseconds(),
	})
	s.announce(req, art)

	s.log.Info("synthesized artifact",
		slog.String("id", art.ID),
		slog.String("voice", req.Voice),
		slog.Int("text_chars", len(req.Text)),
		slog.Duration("elapsed", elapsed))
	return art, nil
}

// OpenStream validates the request and opens the streaming bridge. The bridge
// inherits ctx, so a client disconnect cancels the producer.
func (s *Service) OpenStream(ctx context.Context, text, voice, format string) (*stream.Bridge, Request, error) {
	req, verr := s.Prepare(ctx, text, voice, format)
	if verr != nil {
		s.count(ctx, "stream", "invalid")
		return nil, Request{}, verr
	}

	s.count(ctx, "stream", "ok")
	s.record(ctx, journal.Entry{
		ID: newRequestID(), Mode: "stream", Voice: req.Voice, Format: string(req.Format),
		TextChars: len(req.Text), Status: "ok",
	})
	return stream.Open(ctx, s.synth, req.Text, req.Voice), req, nil
}

// Voices returns the provider catalog ordered by locale.
func (s *Service) Voices(ctx context.Context) ([]synth.VoiceDescriptor, error) {
	return s.synth.ListVoices(ctx)
}

func (s *Service) count(ctx context.Context, mode, status string) {
	if s.requests == nil {
		return
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status),
	))
}

func (s *Service) record(ctx context.Context, entry journal.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.log.Warn("journal record failed", slog.String("error", err.Error()))
	}
}

func (s *Service) announce(req Request, art artifact.Artifact) {
	if s.publisher == nil {
		return
	}
	event := protocol.TTSCompleted{
		ArtifactID: art.ID,
		Voice:      req.Voice,
		Format:     string(req.Format),
		TextChars:  len(req.Text),
		CreatedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(protocol.SubjectTTSCompleted, data); err != nil {
		s.log.Warn("failed to publish completion event", slog.String("error", err.Error()))
	}
}

func newRequestID() string {
	return uuid.NewString()
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
