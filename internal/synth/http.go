package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

type httpSynth struct {
	endpoint  string
	client    *http.Client
	chunkSize int
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// NewHTTPSynth returns a synthesizer backed by a network speech provider.
// POST {endpoint}/synthesize streams the audio body; GET {endpoint}/voices
// returns the catalog.
func NewHTTPSynth(endpoint string, chunkSize int) Synthesizer {
	if chunkSize <= 0 {
		chunkSize = 16 * 1024
	}
	return &httpSynth{endpoint: endpoint, client: http.DefaultClient, chunkSize: chunkSize}
}

func (h *httpSynth) synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: provider returned status %s", ErrSynthesis, resp.Status)
	}
	return resp.Body, nil
}

func (h *httpSynth) SynthesizeFile(ctx context.Context, text, voice, destPath string) error {
	body, err := h.synthesize(ctx, text, voice)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	return nil
}

func (h *httpSynth) SynthesizeStream(ctx context.Context, text, voice string) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)

		body, err := h.synthesize(ctx, text, voice)
		if err != nil {
			errs <- err
			return
		}
		defer body.Close()

		sequence := 0
		buf := make([]byte, h.chunkSize)
		for {
			n, readErr := body.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case <-ctx.Done():
					errs <- fmt.Errorf("%w: %v", ErrSynthesis, ctx.Err())
					return
				case chunks <- Chunk{Sequence: sequence, Data: data}:
					sequence++
				}
			}
			if readErr == io.EOF {
				return
			}
			if readErr != nil {
				errs <- fmt.Errorf("%w: %v", ErrSynthesis, readErr)
				return
			}
		}
	}()
	return chunks, errs
}

func (h *httpSynth) ListVoices(ctx context.Context) ([]VoiceDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: provider returned status %s", ErrCatalog, resp.Status)
	}
	var voices []VoiceDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	sortVoices(voices)
	return voices, nil
}
