// File path: internal/llm/providers/local_test.go
package providers

import (
	"context"
	"math"
	"testing"
)

func TestLocalChatEchoesLastMessage(t *testing.T) {
	provider := NewLocalProvider()
	reply, err := provider.Chat(context.Background(), []Message{
		{Role: "system", Content: "ignored"},
		{Role: "user", Content: "hello there"},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "[local-stub] hello there" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestLocalChatNoMessages(t *testing.T) {
	provider := NewLocalProvider()
	_, err := provider.Chat(context.Background(), nil)
	if err == nil {
		t.Fatal("expected an error for an empty message list")
	}
}

func TestLocalEmbedDeterministic(t *testing.T) {
	provider := NewLocalProvider()
	first, err := provider.Embed(context.Background(), []string{"what is go"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	second, err := provider.Embed(context.Background(), []string{"what is go"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i := range first[0] {
		if first[0][i] != second[0][i] {
			t.Fatal("identical texts must produce identical vectors")
		}
	}
}

func TestLocalEmbedNormalized(t *testing.T) {
	provider := NewLocalProvider()
	vectors, err := provider.Embed(context.Background(), []string{"several words of input text"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	var norm float64
	for _, v := range vectors[0] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Fatalf("expected a unit vector, squared norm %f", norm)
	}
}

func TestProviderErrorRetryable(t *testing.T) {
	err := &ProviderError{Provider: "openai", Op: "chat", Retryable: true, Err: errNoMessages}
	if !IsRetryable(err) {
		t.Fatal("expected retryable error to be reported")
	}
	if IsRetryable(errNoMessages) {
		t.Fatal("a bare error is not retryable")
	}
}
