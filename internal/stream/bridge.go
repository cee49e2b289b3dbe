// Package stream adapts the synthesizer's asynchronous chunk production into
// blocking, ordered delivery for a one-goroutine-per-request HTTP body.
package stream

import (
	"context"
	"io"

	"github.com/loqalabs/loqa-speech/internal/synth"
)

// Bridge owns the producer context for exactly one streaming request. The
// producer goroutine behind the channels is never shared across requests;
// Close tears it down on every exit path.
type Bridge struct {
	chunks <-chan synth.Chunk
	errs   <-chan error
	cancel context.CancelFunc
	err    error
}

// Open starts chunk production scoped to ctx. Cancelling ctx (for example on
// client disconnect) actively cancels the producer.
func Open(ctx context.Context, s synth.Synthesizer, text, voice string) *Bridge {
	ctx, cancel := context.WithCancel(ctx)
	chunks, errs := s.SynthesizeStream(ctx, text, voice)
	return &Bridge{chunks: chunks, errs: errs, cancel: cancel}
}

// Next blocks until the next chunk is available and returns it in production
// order. It returns io.EOF when the sequence completes naturally, or the
// provider error on mid-sequence failure; either way the producer context is
// torn down before returning.
func (b *Bridge) Next() ([]byte, error) {
	for b.chunks != nil || b.errs != nil {
		select {
		case chunk, ok := <-b.chunks:
			if !ok {
				b.chunks = nil
				continue
			}
			return chunk.Data, nil
		case err, ok := <-b.errs:
			if !ok {
				b.errs = nil
				continue
			}
			if err != nil {
				b.err = err
				b.Close()
				return nil, err
			}
		}
	}
	b.Close()
	if b.err != nil {
		return nil, b.err
	}
	return nil, io.EOF
}

// Close cancels the producer context. Safe to call multiple times.
func (b *Bridge) Close() {
	b.cancel()
}
