// Package runtime assembles the speech service from its parts and owns their
// lifecycle: telemetry, journal, bus, synthesizer, artifact store, reaper and
// the HTTP server start together and shut down in reverse order.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loqalabs/loqa-speech/internal/artifact"
	"github.com/loqalabs/loqa-speech/internal/bus"
	"github.com/loqalabs/loqa-speech/internal/config"
	"github.com/loqalabs/loqa-speech/internal/httpapi"
	"github.com/loqalabs/loqa-speech/internal/journal"
	"github.com/loqalabs/loqa-speech/internal/natsserver"
	"github.com/loqalabs/loqa-speech/internal/speech"
	"github.com/loqalabs/loqa-speech/internal/synth"
)

type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	synthesizer, err := newSynthesizer(r.cfg.Synthesis)
	if err != nil {
		return fmt.Errorf("failed to setup synthesizer: %w", err)
	}

	store, err := artifact.NewStore(r.cfg.Storage.Root, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup artifact store: %w", err)
	}

	jstore, err := journal.Open(ctx, r.cfg.Journal, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() {
		if err := jstore.Close(); err != nil {
			r.logger.Error("journal close error", slog.String("error", err.Error()))
		}
	}()

	var (
		embedded  *natsserver.EmbeddedServer
		busClient *bus.Client
		busWorker *speech.BusWorker
		publisher speech.Publisher
	)
	if r.cfg.Bus.Enabled {
		embedded, err = natsserver.Start(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to start embedded bus: %w", err)
		}
		defer embedded.Shutdown()

		busCfg := r.cfg.Bus
		if embedded != nil {
			busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
		}
		busClient, err = bus.Connect(ctx, busCfg, r.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to bus: %w", err)
		}
		defer busClient.Close()
		publisher = busClient
	}

	svc := speech.NewService(r.cfg.Synthesis, synthesizer, store, jstore, publisher, r.logger)

	if busClient != nil {
		busWorker = speech.NewBusWorker(ctx, svc, busClient, r.logger)
		if err := busWorker.Start(); err != nil {
			return fmt.Errorf("failed to start bus worker: %w", err)
		}
		defer busWorker.Close()
	}

	reaper := artifact.NewReaper(store,
		time.Duration(r.cfg.Storage.SweepIntervalMinutes)*time.Minute,
		time.Duration(r.cfg.Storage.MaxAgeSeconds)*time.Second,
		r.logger)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		reaper.Run(ctx)
	}()

	api := httpapi.New(svc, store, jstore, r.logger)
	mux := api.Routes(r.ready.Load, metricHandler)

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("synthesis_mode", r.cfg.Synthesis.Mode),
		slog.Bool("bus", r.cfg.Bus.Enabled))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func newSynthesizer(cfg config.SynthesisConfig) (synth.Synthesizer, error) {
	switch cfg.Mode {
	case "exec":
		return synth.NewExecSynth(cfg.Command, cfg.StreamChunkBytes)
	case "http":
		return synth.NewHTTPSynth(cfg.Endpoint, cfg.StreamChunkBytes), nil
	default:
		return synth.NewMockSynth(cfg.StreamChunkBytes), nil
	}
}
