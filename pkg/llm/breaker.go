package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerProvider wraps an LLMProvider with a circuit breaker so that a
// failing model backend sheds load quickly instead of stacking up
// 120-second timeouts on every pipeline stage.
type BreakerProvider struct {
	inner LLMProvider
	cb    *gobreaker.CircuitBreaker[string]
}

var _ LLMProvider = &BreakerProvider{}

func NewBreakerProvider(inner LLMProvider) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerProvider{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (b *BreakerProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.inner.Chat(ctx, history, options...)
	})
}

func (b *BreakerProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.inner.Generate(ctx, prompt, options...)
	})
}
