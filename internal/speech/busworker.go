package speech

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/loqalabs/loqa-speech/internal/bus"
	"github.com/loqalabs/loqa-speech/internal/protocol"
)

// BusWorker serves buffered synthesis requests arriving over NATS, mirroring
// the HTTP buffered path. Results go to the request's reply subject when set,
// otherwise to the shared result subject.
type BusWorker struct {
	svc    *Service
	bus    *bus.Client
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *slog.Logger
}

func NewBusWorker(parent context.Context, svc *Service, busClient *bus.Client, log *slog.Logger) *BusWorker {
	ctx, cancel := context.WithCancel(parent)
	return &BusWorker{
		svc:    svc,
		bus:    busClient,
		ctx:    ctx,
		cancel: cancel,
		log:    log.With(slog.String("component", "speech-busworker")),
	}
}

func (w *BusWorker) Start() error {
	sub, err := w.bus.Conn().Subscribe(protocol.SubjectTTSRequest, w.handleRequest)
	if err != nil {
		return err
	}
	w.sub = sub
	return nil
}

func (w *BusWorker) Close() {
	w.cancel()
	if w.sub != nil {
		_ = w.sub.Drain()
	}
	w.wg.Wait()
}

func (w *BusWorker) handleRequest(msg *nats.Msg) {
	var req protocol.TTSRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		w.log.Warn("failed to decode tts request", slog.String("error", err.Error()))
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		result := protocol.TTSResult{RequestID: req.RequestID, CompletedAt: time.Now().UTC()}
		art, err := w.svc.SynthesizeBuffered(w.ctx, req.Text, req.Voice, req.Format)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.FileURL = "/audio/" + art.ID
		}

		data, err := json.Marshal(result)
		if err != nil {
			w.log.Warn("failed to marshal tts result", slog.String("error", err.Error()))
			return
		}
		subject := protocol.SubjectTTSResult
		if msg.Reply != "" {
			subject = msg.Reply
		}
		if err := w.bus.Conn().Publish(subject, data); err != nil {
			w.log.Warn("failed to publish tts result", slog.String("error", err.Error()))
		}
	}()
}
