package speech

// Format is the requested audio container label. The provider's bytes pass
// through unchanged; the label only drives the filename and content type.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// Request is an immutable, validated synthesis request.
type Request struct {
	Text   string
	Voice  string
	Format Format
}

// Validation error codes surfaced to clients.
const (
	CodeMissingText   = "missing_text"
	CodeTextTooLong   = "text_too_long"
	CodeInvalidFormat = "invalid_format"
	CodeInvalidVoice  = "invalid_voice"
)

// ValidationError reports a client-side request defect. It is distinguishable
// from a catalog fetch failure, which never surfaces as a validation error.
type ValidationError struct {
	Code   string
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}
