// Package models defines the data structures exchanged over the
// interpretation WebSocket and persisted by the pipeline.
package models

// Message types recognized on the inbound WebSocket.
const (
	TypeAudioChunk    = "audio-chunk"
	TypeTranscript    = "transcript"
	TypeTranscription = "transcription"
)

// Outbound message types.
const (
	TypeTranscriptionError = "transcription-error"
	TypeInterpretation     = "interpretation"
)

// Session represents one active interpretation connection.
type Session struct {
	ConnectionID   string `json:"connectionId"`
	SessionID      string `json:"sessionId"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// ClientMessage is the envelope for everything a client sends after connect.
// A message with an unrecognized type but a non-empty Text field is treated
// as a bare transcript.
type ClientMessage struct {
	Type      string `json:"type"`
	AudioData string `json:"audioData,omitempty"`
	Text      string `json:"text,omitempty"`
	IsPartial bool   `json:"isPartial,omitempty"`
}

// Transcription is pushed for every transcript event from the recognizer,
// partial or final.
type Transcription struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	IsPartial bool   `json:"isPartial"`
}

// TranscriptionError reports a failed recognition stream to the client.
type TranscriptionError struct {
	Type      string `json:"type"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// Interpretation is the fully-enriched result for one finalized segment.
type Interpretation struct {
	Type             string  `json:"type"`
	SegmentID        string  `json:"segmentId"`
	Text             string  `json:"text"`
	TranslatedText   string  `json:"translatedText"`
	Classification   string  `json:"classification"`
	Confidence       float64 `json:"confidence"`
	NeedsHumanReview bool    `json:"needsHumanReview"`
	AudioURL         string  `json:"audioUrl,omitempty"`
	Timestamp        string  `json:"timestamp"`
}
