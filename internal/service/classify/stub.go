package classify

import "context"

// StubClassifier is a fixed-output Classifier for tests and credential-less
// local runs.
type StubClassifier struct {
	Label      string
	Confidence float64
	// Err, when set, is returned from every Classify call.
	Err error

	calls int
}

func (s *StubClassifier) Classify(ctx context.Context, text, languageCode string) (Result, error) {
	s.calls++
	if s.Err != nil {
		return Result{}, s.Err
	}
	label := s.Label
	if label == "" {
		label = "POSITIVE"
	}
	confidence := s.Confidence
	if confidence == 0 {
		confidence = 0.9
	}
	return Result{Label: label, Confidence: confidence}, nil
}

// Calls reports how many times Classify was invoked.
func (s *StubClassifier) Calls() int { return s.calls }
