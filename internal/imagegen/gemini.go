package imagegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/edgard/deepchat/internal/config"
)

const defaultGeminiImageModel = "imagen-3.0-generate-002"

type geminiGenerator struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func newGemini(ctx context.Context, cfg config.ImageConfig, log *slog.Logger) (*geminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini image API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	gi, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiImageModel
	}

	log.Info("Gemini image generator initialized", "model", model)
	return &geminiGenerator{client: gi, model: model, log: log}, nil
}

func (g *geminiGenerator) Name() string { return ProviderGemini }

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (Image, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{NumberOfImages: 1})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			g.log.ErrorContext(ctx, "Gemini image API error", "code", apiErr.Code, "status", apiErr.Status, "message", apiErr.Message)
		} else {
			g.log.ErrorContext(ctx, "Gemini image request failed", "error", err)
		}
		return Image{}, fmt.Errorf("gemini image generation failed: %w", err)
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		reason := ""
		if len(resp.GeneratedImages) > 0 {
			reason = resp.GeneratedImages[0].RAIFilteredReason
		}
		g.log.WarnContext(ctx, "Gemini returned no image", "filtered_reason", reason)
		return Image{}, errors.New("gemini returned no image")
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	g.log.DebugContext(ctx, "Image generated", "bytes", len(img.ImageBytes), "mime", mime)
	return Image{Data: img.ImageBytes, MIME: mime}, nil
}
