package renderer

import "context"

// Renderer turns final summary text into a distributable document.
type Renderer interface {
	Render(ctx context.Context, title, summary, outputPath string) error
}
