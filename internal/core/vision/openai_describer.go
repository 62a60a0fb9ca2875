package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/autoprovider/fileparse/internal/config"
	"github.com/autoprovider/fileparse/internal/core"
)

const describePrompt = "Describe this image. First summarize what it shows and what it is for. " +
	"Then, if the image contains any text or code, transcribe all of it verbatim."

// OpenAIDescriber asks an OpenAI-compatible vision model to describe an
// image by URL. The response is streamed; chunks are accumulated before
// returning. No retry, no timeout beyond the caller's context.
type OpenAIDescriber struct {
	client llms.Model
	log    *zap.Logger
}

var _ core.Describer = (*OpenAIDescriber)(nil)

func NewOpenAIDescriber(cfg *config.Config, log *zap.Logger) (*OpenAIDescriber, error) {
	if cfg.VisionAPIKey == "" {
		return nil, errors.New("VISION_API_KEY not set")
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.VisionBaseURL),
		openai.WithToken(cfg.VisionAPIKey),
		openai.WithModel(cfg.VisionModel),
	)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &OpenAIDescriber{client: client, log: log}, nil
}

func (d *OpenAIDescriber) Describe(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", errors.New("empty image url")
	}
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return "", fmt.Errorf("image url must be absolute: %s", imageURL)
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.ImageURLPart(imageURL),
				llms.TextPart(describePrompt),
			},
		},
	}

	var b strings.Builder
	_, err := d.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(8000),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			b.Write(chunk)
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("vision model: %w", err)
	}

	d.log.Debug("image described", zap.String("url", imageURL), zap.Int("chars", b.Len()))
	return b.String(), nil
}
