package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bryanwahyu/auditlens/internal/domain/ai"
)

type Service struct {
	client ai.Summarizer
}

func NewService(client ai.Summarizer) *Service {
	return &Service{client: client}
}

// Summary is the model's answer for one report.
type Summary struct {
	Slug   string          `json:"slug"`
	Result json.RawMessage `json:"result"`
}

// Summarize returns the model output for the document. Non-JSON output is
// wrapped as a JSON string so the response stays valid.
func (s *Service) Summarize(ctx context.Context, slug, title, markdown string) (*Summary, error) {
	out, err := s.client.Summarize(ctx, title, markdown)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", slug, err)
	}
	raw := json.RawMessage(out)
	if !json.Valid(raw) {
		b, _ := json.Marshal(out)
		raw = b
	}
	return &Summary{Slug: slug, Result: raw}, nil
}
