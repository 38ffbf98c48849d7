// Package completion talks to the generative text backends that write the
// bot's replies.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Failure kinds. Every error returned by a Completer wraps exactly one.
var (
	ErrTimeout     = errors.New("completion timed out")
	ErrRateLimited = errors.New("completion rate limited")
	ErrUnavailable = errors.New("completion service unavailable")
	ErrRejected    = errors.New("completion request rejected")
)

// Request is one single-turn completion.
type Request struct {
	System      string
	UserText    string
	MaxTokens   int
	Stop        []string
	Temperature float64
	TopP        float64
}

type Response struct {
	Text string
}

// Completer produces the bot reply for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Recoverable reports whether a retry later might succeed.
func Recoverable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

// classifyStatus maps a non-2xx HTTP status onto a failure kind.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status >= 500:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}

// classifyTransport maps a failed round trip onto a failure kind.
func classifyTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnavailable
}

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout bounds every call to next by d. A zero or negative d disables
// the bound.
func WithTimeout(next Completer, d time.Duration) Completer {
	if d <= 0 {
		return next
	}
	return &timeoutCompleter{next: next, timeout: d}
}

func (t *timeoutCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.next.Complete(ctx, req)
	if err != nil && !errors.Is(err, ErrTimeout) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, t.timeout, err)
	}
	return resp, err
}
