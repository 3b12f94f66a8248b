// Package google provides a Google Cloud Speech-to-Text transcriber for
// deployments that bypass the backend's transcription endpoint.
package google

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
)

// Transcriber sends one complete answer per request using batch recognition.
// Interview answers are short enough that streaming buys nothing here.
type Transcriber struct {
	client       *speech.Client
	languageCode string
}

// Options configure recognition.
type Options struct {
	LanguageCode string
}

// New creates a transcriber. Credentials come from the environment
// (GOOGLE_APPLICATION_CREDENTIALS).
func New(ctx context.Context, opts Options) (*Transcriber, error) {
	client, err := speech.NewClient(ctx,
		option.WithGRPCDialOption(grpc.WithUserAgent("viva")),
	)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}

	languageCode := opts.LanguageCode
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &Transcriber{client: client, languageCode: languageCode}, nil
}

// Transcribe recognizes one WAV answer and joins the result alternatives in
// order.
func (t *Transcriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: 16000,
			LanguageCode:    t.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: stripWAVHeader(wav)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize answer: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		parts = append(parts, result.Alternatives[0].Transcript)
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying gRPC connection.
func (t *Transcriber) Close() error {
	return t.client.Close()
}

// stripWAVHeader returns the raw PCM payload of a canonical 44-byte WAV
// container; anything else passes through untouched.
func stripWAVHeader(data []byte) []byte {
	if len(data) > 44 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return data[44:]
	}
	return data
}
