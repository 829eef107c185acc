package narrative

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/vohyz/cocFightAgent/internal/constants"
)

type geminiCompleter struct {
	client *genai.Client
	model  string
}

func newGeminiCompleter(ctx context.Context, apiKey string) (*geminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := os.Getenv(constants.EnvGeminiModel)
	if model == "" {
		model = constants.GeminiModelDefault
	}
	return &geminiCompleter{client: client, model: model}, nil
}

func (c *geminiCompleter) Name() string { return "gemini:" + c.model }

// Complete runs one generation. The Gemini backend has no dice tool wired;
// prompts already require dice notation and results in the output, so
// withTools is ignored here.
func (c *geminiCompleter) Complete(ctx context.Context, system, user string, withTools bool) (string, error) {
	temperature := float32(0.1)
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       &temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}
