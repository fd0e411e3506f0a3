package model

import "context"

// Embedder turns images and text into fixed-dimension vectors using a
// pretrained vision-language model. Implementations are constructed once
// at process start and must be safe for concurrent use: multiple image
// pipelines call into the same instance simultaneously.
type Embedder interface {
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
	// EmbedTexts embeds several texts in one call, preserving input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
