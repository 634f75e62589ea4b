// Package google provides a Google Cloud Speech-to-Text streaming adapter.
package google

import (
	"context"
	"errors"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ai-interpretation-service/internal/service/stt"
)

// Adapter implements stt.Adapter using Google Cloud Speech-to-Text.
// One Adapter owns one streaming recognition session.
type Adapter struct {
	client *speech.Client

	mu     sync.Mutex
	stream speechpb.Speech_StreamingRecognizeClient
	closed bool
}

// NewFactory returns an stt.Factory sharing a single speech client.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
func NewFactory(ctx context.Context) (stt.Factory, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (stt.Adapter, error) {
		return &Adapter{client: client}, nil
	}, nil
}

// Start opens the streaming session, sends the recognition config and
// launches the receive loop.
func (a *Adapter) Start(ctx context.Context, cfg stt.StreamConfig, cb stt.Callback) error {
	stream, err := a.client.StreamingRecognize(ctx)
	if err != nil {
		return err
	}

	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: cfg.SampleRateHz,
					LanguageCode:    cfg.LanguageCode,
				},
				InterimResults: cfg.InterimResults,
			},
		},
	})
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.stream = stream
	a.mu.Unlock()

	go a.listen(ctx, stream, cb)
	return nil
}

// SendAudio sends one audio frame to the stream.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	stream := a.stream
	closed := a.closed
	a.mu.Unlock()

	if closed || stream == nil {
		return errors.New("stream not started")
	}
	return stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

// Close half-closes the stream; the receive loop drains remaining results.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.stream != nil {
		return a.stream.CloseSend()
	}
	return nil
}

// listen receives transcript responses until the stream ends and routes
// them to the callback. Only the top alternative of each result is used.
func (a *Adapter) listen(ctx context.Context, stream speechpb.Speech_StreamingRecognizeClient, cb stt.Callback) {
	for {
		resp, err := stream.Recv()
		if err != nil {
			if isCancellation(ctx, err) {
				return
			}
			cb.OnError(err)
			return
		}

		for _, result := range resp.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			alt := result.Alternatives[0]
			if result.IsFinal {
				cb.OnFinal(alt.Transcript, float64(alt.Confidence))
			} else {
				cb.OnPartial(alt.Transcript)
			}
		}
	}
}

// isCancellation distinguishes deliberate teardown from genuine failures.
func isCancellation(ctx context.Context, err error) bool {
	if err == io.EOF {
		return true
	}
	if ctx.Err() != nil {
		return true
	}
	switch status.Code(err) {
	case codes.Canceled, codes.DeadlineExceeded:
		return true
	}
	log.Debug().Err(err).Msg("Stream receive error treated as failure")
	return false
}
