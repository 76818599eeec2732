package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// HTTPClientConfig bundles the HTTP client and its circuit breaker.
type HTTPClientConfig struct {
	Client  *http.Client
	Breaker *gobreaker.CircuitBreaker
}

var (
	ErrRateLimited = errors.New("rate limited")
	ErrServerError = errors.New("server error")
	ErrUnexpected  = errors.New("unexpected status code")
	ErrCircuitOpen = errors.New("circuit breaker open")

	errNoHTTPClient = errors.New("http client not configured")
)

// DefaultBreakerCooldown is how long an open breaker rejects calls. It must stay
// below the fetch interval so every scheduled cycle reaches the network again.
const DefaultBreakerCooldown = time.Minute

// NewBreaker returns the breaker settings shared by outbound calls.
func NewBreaker(name string, cooldown time.Duration) *gobreaker.CircuitBreaker {
	if cooldown <= 0 {
		cooldown = DefaultBreakerCooldown
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Hour,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// SourceBreakers keeps one breaker for the source currently in use. Switching
// to a different source (a new URL or API key) starts from a closed breaker.
type SourceBreakers struct {
	name     string
	cooldown time.Duration

	mu     sync.Mutex
	source string
	cb     *gobreaker.CircuitBreaker
}

func NewSourceBreakers(name string, cooldown time.Duration) *SourceBreakers {
	return &SourceBreakers{name: name, cooldown: cooldown}
}

// For returns the breaker guarding source.
func (b *SourceBreakers) For(source string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cb == nil || b.source != source {
		b.source = source
		b.cb = NewBreaker(b.name, b.cooldown)
	}
	return b.cb
}

// StatusCheck decides whether a response counts as success.
type StatusCheck func(resp *http.Response) error

// RequireSuccess rejects non-2xx responses.
func RequireSuccess(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %d", ErrUnexpected, resp.StatusCode)
	}
	return nil
}

// AnyStatus accepts every response that arrived.
func AnyStatus(*http.Response) error { return nil }

// DoRequest executes one attempt through the circuit breaker. There is no retry;
// the next scheduled cycle is the retry.
func DoRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	check StatusCheck,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if check == nil {
		check = RequireSuccess
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	execute := func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if err := check(resp); err != nil {
			resp.Body.Close()
			return nil, err
		}
		return resp, nil
	}

	var result interface{}
	if cfg.Breaker != nil {
		result, err = cfg.Breaker.Execute(execute)
	} else {
		result, err = execute()
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
