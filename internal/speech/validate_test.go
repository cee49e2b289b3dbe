package speech

import (
	"strings"
	"testing"

	"github.com/loqalabs/loqa-speech/internal/synth"
)

func TestValidateFirstFailureWins(t *testing.T) {
	// Empty text and bad format together must report missing text.
	_, verr := Validate("", "voice", "ogg", 5000, nil)
	if verr == nil || verr.Code != CodeMissingText {
		t.Fatalf("expected missing_text, got %v", verr)
	}

	// Oversized text and bad format together must report the length first.
	long := strings.Repeat("a", 5001)
	_, verr = Validate(long, "voice", "ogg", 5000, nil)
	if verr == nil || verr.Code != CodeTextTooLong {
		t.Fatalf("expected text_too_long, got %v", verr)
	}
}

func TestValidateTextLengthBoundary(t *testing.T) {
	exact := strings.Repeat("a", 5000)
	if _, verr := Validate(exact, "voice", "mp3", 5000, nil); verr != nil {
		t.Fatalf("text at the limit must pass, got %v", verr)
	}
	over := exact + "a"
	if _, verr := Validate(over, "voice", "mp3", 5000, nil); verr == nil || verr.Code != CodeTextTooLong {
		t.Fatalf("text over the limit must fail, got %v", verr)
	}
}

func TestValidateCountsRunesNotBytes(t *testing.T) {
	// 3000 multibyte runes are well within a 5000 character limit.
	text := strings.Repeat("é", 3000)
	if _, verr := Validate(text, "voice", "mp3", 5000, nil); verr != nil {
		t.Fatalf("rune count must drive the limit, got %v", verr)
	}
}

func TestValidateFormatMembership(t *testing.T) {
	for _, format := range []string{"mp3", "wav"} {
		if _, verr := Validate("hi", "voice", format, 5000, nil); verr != nil {
			t.Fatalf("format %q must be allowed, got %v", format, verr)
		}
	}
	_, verr := Validate("hi", "voice", "flac", 5000, nil)
	if verr == nil || verr.Code != CodeInvalidFormat {
		t.Fatalf("expected invalid_format, got %v", verr)
	}
}

func TestValidateNilCatalogSkipsVoiceCheck(t *testing.T) {
	req, verr := Validate("hi", "anything-goes", "mp3", 5000, nil)
	if verr != nil {
		t.Fatalf("nil catalog must skip the voice check, got %v", verr)
	}
	if req.Voice != "anything-goes" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestValidateVoiceMembershipAgainstCatalog(t *testing.T) {
	catalog := []synth.VoiceDescriptor{{ID: "en-US-ChristopherNeural", Locale: "en-US"}}
	if _, verr := Validate("hi", "en-US-ChristopherNeural", "mp3", 5000, catalog); verr != nil {
		t.Fatalf("catalog member must pass, got %v", verr)
	}
	_, verr := Validate("hi", "xx-XX-NobodyNeural", "mp3", 5000, catalog)
	if verr == nil || verr.Code != CodeInvalidVoice {
		t.Fatalf("expected invalid_voice, got %v", verr)
	}
}
