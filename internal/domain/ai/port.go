package ai

import "context"

// Summarizer condenses an explanation document.
type Summarizer interface {
	Summarize(ctx context.Context, title, markdown string) (string, error)
}
