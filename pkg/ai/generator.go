// Package ai holds the LLM boundary: provider clients, prompt assembly and
// defensive decoding of model output into closed, typed result variants.
// Untyped JSON never crosses out of this package.
package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// Both providers (Gemini, OpenAI-compatible) implement this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImageAnalyzer answers a prompt about an image.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, prompt string, mimeType string, image []byte) (string, error)
}
