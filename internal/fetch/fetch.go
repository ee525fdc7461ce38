// Package fetch wraps http.Client with the retry policy both upstream
// APIs are called under: transient statuses (429 and any 5xx) retry
// with exponential backoff, everything else fails the call.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response that was not retried, or the last
// response after retries ran out. It aborts the enclosing run.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d) %s: %s", e.StatusCode, e.URL, e.Body)
}

// Policy is the retry schedule. The zero value is not usable; start
// from DefaultPolicy.
type Policy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int
	Sleep          func(time.Duration) // test seam; nil means time.Sleep
}

// DefaultPolicy is 2s, 4s, 8s, 16s, 20s between up to 6 attempts.
func DefaultPolicy() Policy {
	return Policy{
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     20 * time.Second,
		MaxAttempts:    6,
	}
}

func (p Policy) sleep(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// Do issues the request produced by build, retrying per the policy.
// build is called once per attempt so request bodies are fresh. On
// success the caller owns the response body.
func Do(ctx context.Context, hc *http.Client, p Policy, build func() (*http.Request, error)) (*http.Response, error) {
	attempt := 0
	backoff := p.InitialBackoff
	for {
		attempt++

		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := hc.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if retryable(resp.StatusCode) && attempt < p.MaxAttempts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p.sleep(backoff)
			backoff *= 2
			if backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
			continue
		}

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			URL:        req.URL.String(),
			Body:       strings.TrimSpace(string(body)),
		}
	}
}
