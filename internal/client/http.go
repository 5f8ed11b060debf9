// Package client talks to the catalog, booking ledger and payment
// processor over HTTP/JSON.  Each collaborator sits behind its own circuit
// breaker, and every response is normalized into model types before it
// leaves the package.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/iliyamo/seatflow/internal/model"
)

const maxBody = 1 << 20

// Options configure a collaborator client.
type Options struct {
	Timeout    time.Duration
	Breaker    BreakerConfig
	Logger     *zap.Logger
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.Breaker == (BreakerConfig{}) {
		o.Breaker = DefaultBreakerConfig()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	return o
}

// fetchError is a transport-level failure: the collaborator could not be
// reached, answered 5xx, or sent something unreadable.
type fetchError struct {
	collaborator string
	status       int
	cause        error
}

func (e *fetchError) Error() string {
	switch {
	case e.status != 0:
		return fmt.Sprintf("%s: %s: unexpected status %d", model.ErrFetchFailure, e.collaborator, e.status)
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", model.ErrFetchFailure, e.collaborator, e.cause)
	}
	return fmt.Sprintf("%s: %s", model.ErrFetchFailure, e.collaborator)
}

func (e *fetchError) Unwrap() []error {
	if e.cause != nil {
		return []error{model.ErrFetchFailure, e.cause}
	}
	return []error{model.ErrFetchFailure}
}

type response struct {
	status int
	body   []byte
}

// endpoint is the shared plumbing of every client.
type endpoint struct {
	name    string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func newEndpoint(name, baseURL string, opts Options) endpoint {
	opts = opts.withDefaults()
	return endpoint{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    opts.HTTPClient,
		breaker: newBreaker(name, opts.Breaker, opts.Logger),
		logger:  opts.Logger.With(zap.String("collaborator", name)),
	}
}

// do sends one request through the breaker.  Transport errors and 5xx
// answers without a structured error body come back as a fetchError; any
// other answer, including a 5xx that carries an error message, is returned
// for the caller to interpret and does not count against the breaker.
func (e endpoint) do(ctx context.Context, method, path string, payload any) (response, error) {
	out, err := e.breaker.Execute(func() (interface{}, error) {
		return e.roundTrip(ctx, method, path, payload)
	})
	if err != nil {
		err = breakerError(e.name, err)
		e.logger.Debug("collaborator call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return response{}, err
	}
	return out.(response), nil
}

func (e endpoint) roundTrip(ctx context.Context, method, path string, payload any) (response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return response{}, fmt.Errorf("encode %s request: %w", e.name, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, body)
	if err != nil {
		return response{}, fmt.Errorf("build %s request: %w", e.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return response{}, &fetchError{collaborator: e.name, cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return response{}, &fetchError{collaborator: e.name, cause: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		if _, replied := errorReply(raw); !replied {
			return response{}, &fetchError{collaborator: e.name, status: resp.StatusCode}
		}
	}
	return response{status: resp.StatusCode, body: raw}, nil
}

func ok(status int) bool { return status >= 200 && status < 300 }
