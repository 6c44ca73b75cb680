package process

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// SplitConfig controls splitting of oversized completions.
type SplitConfig struct {
	MaxTokens     int // 0 disables splitting
	OverlapTokens int
}

// Enabled reports whether completions may be split at all.
func (c SplitConfig) Enabled() bool {
	return c.MaxTokens > 0
}

// SplitCompletion breaks a completion that exceeds cfg.MaxTokens into parts
// using a recursive character splitter measured in tokens. Completions within
// the limit, or any completion when splitting is disabled, come back as a
// single part unchanged. Empty parts are dropped.
func SplitCompletion(completion string, cfg SplitConfig) ([]string, error) {
	if !cfg.Enabled() || CountTokens(completion) <= cfg.MaxTokens {
		return []string{completion}, nil
	}

	overlap := cfg.OverlapTokens
	if overlap < 0 || overlap >= cfg.MaxTokens {
		overlap = 0
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.MaxTokens),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithLenFunc(CountTokens),
	)

	parts, err := splitter.SplitText(completion)
	if err != nil {
		return nil, fmt.Errorf("split completion: %w", err)
	}

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = TrimText(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{completion}, nil
	}
	return out, nil
}

// PartLabel appends a " (part i/n)" suffix to prompt when a completion was split.
func PartLabel(prompt string, index, total int) string {
	if total <= 1 {
		return prompt
	}
	return fmt.Sprintf("%s (part %d/%d)", prompt, index+1, total)
}
