// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const localEmbedDim = 16

// LocalProvider is a no-network stand-in used when no API key is configured.
// Chat echoes the last message; Embed hashes token occurrences into a small
// normalized vector, so identical texts stay identical and related texts
// stay close.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", &ProviderError{Provider: l.Name(), Op: "chat", Err: errNoMessages}
	}
	last := messages[len(messages)-1].Content
	return "[local-stub] " + strings.TrimSpace(last), nil
}

var errNoMessages = &staticError{"no messages provided"}

type staticError struct{ msg string }

func (e *staticError) Error() string { return e.msg }

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i, text := range input {
		vectors[i] = hashEmbed(text)
	}
	return vectors, nil
}

func hashEmbed(text string) []float32 {
	vec := make([]float32, localEmbedDim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%localEmbedDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

func (l *LocalProvider) Name() string {
	return "local"
}
