package models

// InterpretationEvent is the Kafka event emitted for every processed segment.
type InterpretationEvent struct {
	EventType        string  `json:"eventType"`
	SessionID        string  `json:"sessionId"`
	SegmentID        string  `json:"segmentId"`
	Text             string  `json:"text"`
	TranslatedText   string  `json:"translatedText"`
	Classification   string  `json:"classification"`
	Confidence       float64 `json:"confidence"`
	NeedsHumanReview bool    `json:"needsHumanReview"`
	Timestamp        int64   `json:"timestamp"`
}

// ReviewTaskEvent is the Kafka event emitted when a segment is escalated
// for human review.
type ReviewTaskEvent struct {
	EventType      string `json:"eventType"`
	SessionID      string `json:"sessionId"`
	SegmentID      string `json:"segmentId"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	Priority       string `json:"priority"`
	Timestamp      int64  `json:"timestamp"`
}
