package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/psantana5/capctl/pkg/retry"
)

// DefaultEmitTimeout bounds one Emit, retries included
const DefaultEmitTimeout = time.Second

// HTTPSink posts each observation as JSON to a collector URL
type HTTPSink struct {
	url     string
	client  *http.Client
	retry   retry.Config
	timeout time.Duration
}

// NewHTTPSink creates a sink posting to url. A nil client gets a short timeout.
func NewHTTPSink(url string, client *http.Client) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: DefaultEmitTimeout}
	}
	return &HTTPSink{
		url:     url,
		client:  client,
		retry:   retry.DefaultConfig(),
		timeout: DefaultEmitTimeout,
	}
}

// WithTimeout replaces the overall deadline of one Emit. Zero or less
// leaves only the caller's context in charge.
func (s *HTTPSink) WithTimeout(d time.Duration) *HTTPSink {
	s.timeout = d
	return s
}

// WithRetry replaces the retry policy
func (s *HTTPSink) WithRetry(cfg retry.Config) *HTTPSink {
	s.retry = cfg
	return s
}

// Emit implements Sink. A slow collector costs the command at most the
// sink's timeout.
func (s *HTTPSink) Emit(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return retry.Do(ctx, s.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode >= 500:
			return retry.Retryable(fmt.Errorf("collector returned %d", resp.StatusCode))
		case resp.StatusCode >= 300:
			return retry.Permanent(fmt.Errorf("collector returned %d", resp.StatusCode))
		}
		return nil
	})
}
