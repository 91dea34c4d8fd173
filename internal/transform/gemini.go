// internal/transform/gemini.go
package transform

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/selbekk/rotfest-crowdsource-app/internal/config"
)

// ErrNoImage is returned when the model answers without image data.
var ErrNoImage = errors.New("no image data in model response")

// Gemini edits images through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg *config.Config) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.GeminiModel}, nil
}

// Transform sends the image with the fixed style prompt and returns the
// decoded bytes and MIME type of the first image part in the response.
func (g *Gemini) Transform(ctx context.Context, image []byte, contentType string) ([]byte, string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(StylePrompt),
		genai.NewPartFromBytes(image, contentType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return nil, "", fmt.Errorf("image edit request failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, "", ErrNoImage
	}

	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			data, err := DecodePayload(part.InlineData.Data)
			if err != nil {
				return nil, "", err
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/jpeg"
			}
			return data, mimeType, nil
		}
	}

	return nil, "", ErrNoImage
}
