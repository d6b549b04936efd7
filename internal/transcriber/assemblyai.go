package transcriber

import (
	"context"
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"
)

// WebhookSecretHeader is the header the provider echoes back on its
// callback; the webhook endpoint checks it against the configured secret.
const WebhookSecretHeader = "x-webhook-secret"

type AssemblyAIGateway struct {
	client        *aai.Client
	webhookSecret string
}

// Make sure we conform to the Gateway interface
var _ Gateway = (*AssemblyAIGateway)(nil)

func NewAssemblyAIGateway(apiKey string, webhookSecret string) *AssemblyAIGateway {
	return &AssemblyAIGateway{
		client:        aai.NewClient(apiKey),
		webhookSecret: webhookSecret,
	}
}

func (g *AssemblyAIGateway) Submit(ctx context.Context, audioURL string, webhookURL string) (string, error) {
	transcript, err := g.client.Transcripts.SubmitFromURL(ctx, audioURL, &aai.TranscriptOptionalParams{
		WebhookURL:             aai.String(webhookURL),
		WebhookAuthHeaderName:  aai.String(WebhookSecretHeader),
		WebhookAuthHeaderValue: aai.String(g.webhookSecret),
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit transcription: %w", err)
	}

	id := aai.ToString(transcript.ID)
	zap.S().Named("transcriber").Infof("transcription submitted with id %s", id)

	return id, nil
}

func (g *AssemblyAIGateway) Fetch(ctx context.Context, transcriptionID string) (string, error) {
	transcript, err := g.client.Transcripts.Get(ctx, transcriptionID)
	if err != nil {
		return "", fmt.Errorf("failed to get transcript %s: %w", transcriptionID, err)
	}

	switch transcript.Status {
	case aai.TranscriptStatusError:
		return "", fmt.Errorf("%w: %s", ErrProviderFailed, aai.ToString(transcript.Error))
	case aai.TranscriptStatusCompleted:
	default:
		return "", fmt.Errorf("%w: status %s", ErrNotReady, transcript.Status)
	}

	text := aai.ToString(transcript.Text)
	if text == "" {
		return "", ErrEmptyTranscript
	}

	return text, nil
}
