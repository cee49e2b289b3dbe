package protocol

import "time"

// TTSRequest asks the speech service to run a buffered synthesis over the bus.
type TTSRequest struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	Voice     string `json:"voice"`
	Format    string `json:"format"`
}

// TTSResult answers a bus synthesis request with the artifact location or an
// error description.
type TTSResult struct {
	RequestID   string    `json:"request_id"`
	FileURL     string    `json:"file_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// TTSCompleted announces a finished buffered synthesis.
type TTSCompleted struct {
	ArtifactID string    `json:"artifact_id"`
	Voice      string    `json:"voice"`
	Format     string    `json:"format"`
	TextChars  int       `json:"text_chars"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	SubjectTTSRequest   = "speech.tts.request"
	SubjectTTSResult    = "speech.tts.result"
	SubjectTTSCompleted = "speech.tts.completed"
)
