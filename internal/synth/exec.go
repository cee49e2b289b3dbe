package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"

	"github.com/mattn/go-shellwords"
)

// execSynth shells out to an edge-tts compatible CLI. File mode uses
// --write-media, stream mode reads raw audio from stdout, and the catalog
// comes from --list-voices with JSON output.
type execSynth struct {
	cmd       []string
	chunkSize int
}

func NewExecSynth(command string, chunkSize int) (Synthesizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse synthesis command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("synthesis command empty")
	}
	if chunkSize <= 0 {
		chunkSize = 16 * 1024
	}
	return &execSynth{cmd: args, chunkSize: chunkSize}, nil
}

func (e *execSynth) command(ctx context.Context, extra ...string) *exec.Cmd {
	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	args = append(args, extra...)
	return exec.CommandContext(ctx, base, args...)
}

func (e *execSynth) SynthesizeFile(ctx context.Context, text, voice, destPath string) error {
	cmd := e.command(ctx, "--text", text, "--voice", voice, "--write-media", destPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %v: %s", ErrSynthesis, err, output)
	}
	return nil
}

func (e *execSynth) SynthesizeStream(ctx context.Context, text, voice string) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)

		cmd := e.command(ctx, "--text", text, "--voice", voice)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			errs <- fmt.Errorf("%w: %v", ErrSynthesis, err)
			return
		}
		if err := cmd.Start(); err != nil {
			errs <- fmt.Errorf("%w: %v", ErrSynthesis, err)
			return
		}

		sequence := 0
		buf := make([]byte, e.chunkSize)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case <-ctx.Done():
					cmd.Wait()
					errs <- fmt.Errorf("%w: %v", ErrSynthesis, ctx.Err())
					return
				case chunks <- Chunk{Sequence: sequence, Data: data}:
					sequence++
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				cmd.Wait()
				errs <- fmt.Errorf("%w: %v", ErrSynthesis, readErr)
				return
			}
		}
		if err := cmd.Wait(); err != nil {
			errs <- fmt.Errorf("%w: %v", ErrSynthesis, err)
		}
	}()
	return chunks, errs
}

func (e *execSynth) ListVoices(ctx context.Context) ([]VoiceDescriptor, error) {
	cmd := e.command(ctx, "--list-voices", "--format", "json")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	var voices []VoiceDescriptor
	if err := json.Unmarshal(output, &voices); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	sortVoices(voices)
	return voices, nil
}
