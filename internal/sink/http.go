package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hookrelay/internal/config"
	"hookrelay/internal/logger"
)

// HTTPSink posts rendered messages to a chat-bot HTTP API, one request per
// destination group.
type HTTPSink struct {
	endpoint string
	client   *http.Client
	logger   logger.Logger
}

type httpSinkRequest struct {
	GroupID int64  `json:"group_id"`
	Message string `json:"message"`
}

func NewHTTPSink(cfg config.HTTPSinkConfig, log logger.Logger) *HTTPSink {
	timeout := cfg.TimeoutSeconds * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSink{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   log,
	}
}

func (s *HTTPSink) Send(ctx context.Context, destination int64, text string) error {
	body, err := json.Marshal(httpSinkRequest{
		GroupID: destination,
		Message: text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sink request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sink request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sink request failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sink returned status %d", resp.StatusCode)
	}

	return nil
}

func (s *HTTPSink) Ready() bool {
	return s.endpoint != ""
}

func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
