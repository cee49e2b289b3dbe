package speech

import (
	"fmt"
	"unicode/utf8"

	"github.com/loqalabs/loqa-speech/internal/synth"
)

// Validate applies the request rules in order; the first failure wins. A nil
// catalog skips the advisory voice membership check, leaving the provider as
// the final arbiter of voice validity. No side effects.
func Validate(text, voice, format string, maxTextLength int, catalog []synth.VoiceDescriptor) (Request, *ValidationError) {
	if text == "" {
		return Request{}, &ValidationError{Code: CodeMissingText, Detail: "text is required"}
	}
	if n := utf8.RuneCountInString(text); n > maxTextLength {
		return Request{}, &ValidationError{
			Code:   CodeTextTooLong,
			Detail: fmt.Sprintf("text length %d exceeds limit %d", n, maxTextLength),
		}
	}
	switch Format(format) {
	case FormatMP3, FormatWAV:
	default:
		return Request{}, &ValidationError{
			Code:   CodeInvalidFormat,
			Detail: fmt.Sprintf("format %q not supported, allowed: mp3, wav", format),
		}
	}
	if catalog != nil {
		if verr := CheckVoice(voice, catalog); verr != nil {
			return Request{}, verr
		}
	}
	return Request{Text: text, Voice: voice, Format: Format(format)}, nil
}

// CheckVoice verifies membership of voice in the catalog snapshot.
func CheckVoice(voice string, catalog []synth.VoiceDescriptor) *ValidationError {
	for _, v := range catalog {
		if v.ID == voice {
			return nil
		}
	}
	return &ValidationError{
		Code:   CodeInvalidVoice,
		Detail: fmt.Sprintf("voice %q not found in catalog", voice),
	}
}
