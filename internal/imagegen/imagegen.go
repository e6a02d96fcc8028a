// Package imagegen produces images for the /image command. Each call is a
// single request to the configured provider; there is no caching or retry.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/deepchat/internal/config"
)

// Provider names accepted in image.provider.
const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderDisabled = "disabled"
)

// ErrDisabled is returned by the disabled generator.
var ErrDisabled = errors.New("image generation is disabled")

// Image is a generated picture, either hosted at URL or inline as Data.
type Image struct {
	URL  string
	Data []byte
	MIME string
}

// Generator turns a text prompt into an image.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Image, error)
	// Name is the provider name, used as a metrics label.
	Name() string
}

// New returns the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.ImageConfig, logger *slog.Logger) (Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "image_generator", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAI(cfg, log)
	case ProviderGemini:
		return newGemini(ctx, cfg, log)
	case ProviderDisabled, "":
		log.Info("Image generation disabled")
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown image provider %q", cfg.Provider)
	}
}

// Disabled rejects every request with ErrDisabled.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (Image, error) {
	return Image{}, ErrDisabled
}

func (Disabled) Name() string { return ProviderDisabled }
