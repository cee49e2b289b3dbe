package synth

import (
	"context"
	"fmt"
	"os"
)

type mockSynth struct {
	chunkSize int
	voices    []VoiceDescriptor
}

// NewMockSynth returns a synthesizer that renders deterministic placeholder
// bytes. Both delivery modes produce identical payloads for identical inputs.
func NewMockSynth(chunkSize int) Synthesizer {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	voices := []VoiceDescriptor{
		{ID: "en-GB-RyanNeural", Gender: "Male", Locale: "en-GB", DisplayName: "Ryan"},
		{ID: "en-US-ChristopherNeural", Gender: "Male", Locale: "en-US", DisplayName: "Christopher"},
		{ID: "en-US-JennyNeural", Gender: "Female", Locale: "en-US", DisplayName: "Jenny"},
		{ID: "fr-FR-DeniseNeural", Gender: "Female", Locale: "fr-FR", DisplayName: "Denise"},
	}
	sortVoices(voices)
	return &mockSynth{chunkSize: chunkSize, voices: voices}
}

func (m *mockSynth) render(text, voice string) []byte {
	return []byte(fmt.Sprintf("mock-audio[%s]%s", voice, text))
}

func (m *mockSynth) SynthesizeFile(ctx context.Context, text, voice, destPath string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	if err := os.WriteFile(destPath, m.render(text, voice), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	return nil
}

func (m *mockSynth) SynthesizeStream(ctx context.Context, text, voice string) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		payload := m.render(text, voice)
		sequence := 0
		for off := 0; off < len(payload); off += m.chunkSize {
			end := off + m.chunkSize
			if end > len(payload) {
				end = len(payload)
			}
			select {
			case <-ctx.Done():
				errs <- fmt.Errorf("%w: %v", ErrSynthesis, ctx.Err())
				return
			case chunks <- Chunk{Sequence: sequence, Data: payload[off:end]}:
				sequence++
			}
		}
	}()
	return chunks, errs
}

func (m *mockSynth) ListVoices(ctx context.Context) ([]VoiceDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	out := make([]VoiceDescriptor, len(m.voices))
	copy(out, m.voices)
	return out, nil
}
