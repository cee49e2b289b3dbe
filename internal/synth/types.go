package synth

import (
	"context"
	"errors"
	"sort"
)

// ErrSynthesis marks a provider failure while producing audio. Fatal to the
// request that triggered it.
var ErrSynthesis = errors.New("synthesis failed")

// ErrCatalog marks a voice catalog fetch failure. Callers use the catalog only
// for advisory validation and must treat this as non-fatal.
var ErrCatalog = errors.New("voice catalog unavailable")

// VoiceDescriptor identifies one voice offered by the provider.
type VoiceDescriptor struct {
	ID          string `json:"ShortName"`
	Gender      string `json:"Gender"`
	Locale      string `json:"Locale"`
	DisplayName string `json:"DisplayName"`
}

// Chunk is one ordered unit of audio payload emitted during streaming
// synthesis. The stream ends when the chunk channel closes.
type Chunk struct {
	Sequence int
	Data     []byte
}

// Synthesizer is the contract for the external speech synthesis capability.
type Synthesizer interface {
	// SynthesizeFile writes the complete audio for text+voice to destPath.
	// On failure destPath may hold a partial write; callers must not serve it.
	SynthesizeFile(ctx context.Context, text, voice, destPath string) error
	// SynthesizeStream produces audio chunks in emission order. The chunk
	// channel closes on natural completion; a mid-sequence provider failure
	// arrives on the error channel after the chunks emitted so far.
	SynthesizeStream(ctx context.Context, text, voice string) (<-chan Chunk, <-chan error)
	// ListVoices returns the provider catalog ordered by locale.
	ListVoices(ctx context.Context) ([]VoiceDescriptor, error)
}

func sortVoices(voices []VoiceDescriptor) {
	sort.SliceStable(voices, func(i, j int) bool {
		if voices[i].Locale != voices[j].Locale {
			return voices[i].Locale < voices[j].Locale
		}
		return voices[i].ID < voices[j].ID
	})
}
