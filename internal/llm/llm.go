// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/hybridrag/docqa/internal/common"
	"github.com/hybridrag/docqa/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

type ProviderError = providers.ProviderError

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool { return providers.IsRetryable(err) }

// NewProvider selects a provider from the environment: OpenAI when an API
// key is present, otherwise the local no-network stand-in.
func NewProvider() Provider {
	logger := common.Logger()
	if local, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("DOCQA_LOCAL_PROVIDER"))); local {
		logger.Info("llm: local provider requested")
		return providers.NewLocalProvider()
	}
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		logger.Warn("llm: OPENAI_API_KEY not set; falling back to local provider")
		return providers.NewLocalProvider()
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeoutStr := strings.TrimSpace(os.Getenv("OPENAI_HTTP_TIMEOUT")); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			logger.Warn("llm: invalid OPENAI_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
		} else {
			logger.Info("llm: configuring OpenAI client with custom HTTP timeout", "timeout", timeout)
			opts = append(opts, option.WithRequestTimeout(timeout))
		}
	}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", endpoint)
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	logger.Info("llm: OpenAI provider selected")
	return providers.NewOpenAIProvider(openai.NewClient(opts...))
}
