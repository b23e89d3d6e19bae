package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/i474232898/bom-weather/internal/weather"
)

const userAgent = "bom-weather/1.0"

// maxBodySize caps how much of an upstream response is read.
const maxBodySize = 16 << 20

// HTTPClientConfig bundles the HTTP client used by a provider.
type HTTPClientConfig struct {
	Client *http.Client
}

var errNoHTTPClient = errors.New("http client not configured")

// NewHTTPClient returns an instrumented client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// countsAsSuccess keeps per-request failures out of the breaker's counts: a 4xx is about
// the station that was asked for and a cancelled context is about the caller. Only
// transport failures and 5xx answers say the upstream itself is unhealthy.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *weather.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
	}
	return false
}

// doRequest executes a single GET through the circuit breaker and returns the body.
// There are no retries: transport failures, non-2xx answers and an open breaker
// all surface as weather.ErrNetwork on the first attempt.
func doRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, url string) ([]byte, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrNetwork, errNoHTTPClient)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", weather.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
			return nil, &weather.StatusError{StatusCode: resp.StatusCode, URL: url}
		}

		return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open: %v", weather.ErrNetwork, err)
		}
		return nil, fmt.Errorf("%w: %w", weather.ErrNetwork, err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", weather.ErrNetwork)
	}
	return body, nil
}
