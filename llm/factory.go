package llm

import (
	"fmt"
	"time"

	"github.com/weaverhq/changelog-weaver/types"
)

// NewSummarizer builds a Summarizer from the model configuration. A nil
// result with a nil error means summarization is disabled (no API key);
// callers then skip enrichment and the changelog is produced without
// summaries.
func NewSummarizer(config *types.ModelConfig) (Summarizer, error) {
	if config == nil || config.APIKey == "" {
		return nil, nil
	}
	if config.Name == "" {
		return nil, fmt.Errorf("model name is required when an API key is configured")
	}

	timeout := 60 * time.Second
	if config.RequestTimeoutSeconds > 0 {
		timeout = time.Duration(config.RequestTimeoutSeconds) * time.Second
	}
	return NewOpenAIProvider(config.APIKey, config.BaseURL, config.Name, timeout, config.MaxRetries, config.Debug), nil
}
