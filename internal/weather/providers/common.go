package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-mood/internal/logger"
	"github.com/i474232898/weather-mood/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and the client-side guards that
// sit in front of it.
type HTTPClientConfig struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

var errNoHTTPClient = errors.New("http client not configured")

// rawResponse is a fully read provider answer.
type rawResponse struct {
	StatusCode int
	Body       []byte
}

// doRequest executes exactly one HTTP request. Transport failures and
// rate-limit waits that are cut short surface as upstream errors with status
// 0; any status is returned to the caller untouched.
//
// The circuit breaker only observes outcomes: transport failures and server
// errors count as failures, but an open circuit never stops the request.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.TwoStepCircuitBreaker,
	buildRequest func() (*http.Request, error),
) (rawResponse, error) {
	if cfg.Client == nil {
		return rawResponse{}, weather.NewUpstreamError(0, "", errNoHTTPClient)
	}

	if cfg.Limiter != nil {
		if err := cfg.Limiter.Wait(ctx); err != nil {
			return rawResponse{}, weather.NewUpstreamError(0, "", fmt.Errorf("rate limit wait: %w", err))
		}
	}

	req, err := buildRequest()
	if err != nil {
		return rawResponse{}, weather.NewUpstreamError(0, "", fmt.Errorf("build request: %w", err))
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	// Allow fails while the circuit is open or half-open slots are taken;
	// the outcome of such a request is simply not recorded.
	done, allowErr := cb.Allow()
	record := func(success bool) {
		if allowErr == nil {
			done(success)
		}
	}

	resp, err := cfg.Client.Do(req)
	if err != nil {
		record(false)
		return rawResponse{}, weather.NewUpstreamError(0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		record(false)
		return rawResponse{}, weather.NewUpstreamError(0, "", fmt.Errorf("read response body: %w", err))
	}

	record(resp.StatusCode < 500)
	return rawResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func newCircuitBreaker(name string) *gobreaker.TwoStepCircuitBreaker {
	return gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    circuitInterval,
		Timeout:     circuitTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= circuitMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.GetLogger().Warnw("provider circuit changed state", "provider", name, "from", from.String(), "to", to.String())
		},
	})
}
