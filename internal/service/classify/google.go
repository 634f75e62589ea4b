package classify

import (
	"context"
	"fmt"

	languageapi "cloud.google.com/go/language/apiv1"
	"cloud.google.com/go/language/apiv1/languagepb"
	"github.com/rs/zerolog/log"
)

// GoogleClassifier implements Classifier using the Google Cloud Natural
// Language API. It tries content classification first and falls back to
// sentiment analysis when classification is unavailable (short texts,
// unsupported languages). Requires GOOGLE_APPLICATION_CREDENTIALS.
type GoogleClassifier struct {
	client *languageapi.Client
}

// NewGoogle creates a Google-backed classifier.
func NewGoogle(ctx context.Context) (*GoogleClassifier, error) {
	client, err := languageapi.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("language client: %w", err)
	}
	return &GoogleClassifier{client: client}, nil
}

func (c *GoogleClassifier) Classify(ctx context.Context, text, languageCode string) (Result, error) {
	doc := &languagepb.Document{
		Source:   &languagepb.Document_Content{Content: text},
		Type:     languagepb.Document_PLAIN_TEXT,
		Language: languageCode,
	}

	resp, err := c.client.ClassifyText(ctx, &languagepb.ClassifyTextRequest{Document: doc})
	if err == nil && len(resp.Categories) > 0 {
		top := resp.Categories[0]
		return Result{Label: top.Name, Confidence: float64(top.Confidence)}, nil
	}
	if err != nil {
		log.Debug().Err(err).Msg("Content classification unavailable, using sentiment")
	}

	sentiment, err := c.client.AnalyzeSentiment(ctx, &languagepb.AnalyzeSentimentRequest{Document: doc})
	if err != nil {
		return Result{}, fmt.Errorf("analyze sentiment: %w", err)
	}
	return fromSentiment(float64(sentiment.DocumentSentiment.Score)), nil
}

// fromSentiment maps a document sentiment score in [-1, 1] to a label and a
// confidence in [0, 1].
func fromSentiment(score float64) Result {
	label := "NEUTRAL"
	switch {
	case score >= 0.25:
		label = "POSITIVE"
	case score <= -0.25:
		label = "NEGATIVE"
	}
	return Result{Label: label, Confidence: (score + 1) / 2}
}

// Close releases the underlying client.
func (c *GoogleClassifier) Close() error {
	return c.client.Close()
}
