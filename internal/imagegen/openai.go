package imagegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/edgard/deepchat/internal/config"
)

type openAIGenerator struct {
	client *openai.Client
	model  string
	size   string
	log    *slog.Logger
}

func newOpenAI(cfg config.ImageConfig, log *slog.Logger) (*openAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai image API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	g := &openAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		size:   cfg.Size,
		log:    log,
	}
	if g.model == "" {
		g.model = openai.CreateImageModelDallE2
	}
	if g.size == "" {
		g.size = openai.CreateImageSize512x512
	}

	log.Info("OpenAI image generator initialized", "model", g.model, "size", g.size)
	return g, nil
}

func (g *openAIGenerator) Name() string { return ProviderOpenAI }

func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (Image, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           g.size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		g.log.ErrorContext(ctx, "Image generation request failed", "error", err)
		return Image{}, fmt.Errorf("openai image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		g.log.WarnContext(ctx, "Image generation returned no image")
		return Image{}, errors.New("openai returned no image")
	}

	g.log.DebugContext(ctx, "Image generated", "prompt_length", len(prompt))
	return Image{URL: resp.Data[0].URL}, nil
}
