// Package dispatch implements the dispatch target: the single function the
// substrate invokes at trigger time to perform the actual outbound callback.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/garyfan1/timegate/internal/observability"
)

// payload is the stored target input: the original scheduling request.
// Only the fields needed to perform the callback are decoded; data is
// replayed verbatim as the request body.
type payload struct {
	TargetInfo struct {
		Callback string `json:"callback"`
		Method   string `json:"method"`
	} `json:"target_info"`
	Data json.RawMessage `json:"data"`
}

// Dispatcher performs outbound callback calls. Delivery is best-effort and
// fire-and-forget: one attempt, no response validation, no outcome
// persistence.
type Dispatcher struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a dispatcher. A nil client gets a default with a timeout, so
// a hung callback endpoint cannot pin a worker goroutine forever.
func New(client *http.Client, logger *slog.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{client: client, logger: logger}
}

// Dispatch extracts the callback URL, method, and data from the stored
// payload and issues one HTTP request with a JSON body.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) error {
	// Each invocation gets an id so the single log line per firing can be
	// correlated with the receiving side.
	invocationID := uuid.NewString()
	log := d.logger.With(slog.String("invocation_id", invocationID))

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		observability.DispatchTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("malformed target payload: %w", err)
	}
	if p.TargetInfo.Callback == "" || p.TargetInfo.Method == "" {
		observability.DispatchTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("target payload missing callback or method")
	}

	body, err := json.Marshal(p.Data)
	if err != nil {
		observability.DispatchTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("failed to serialize callback data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, p.TargetInfo.Method, p.TargetInfo.Callback, bytes.NewReader(body))
	if err != nil {
		observability.DispatchTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		observability.DispatchTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("callback request failed: %w", err)
	}
	// The response is not validated; drain and close so the connection can
	// be reused.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	observability.DispatchTotal.WithLabelValues("ok").Inc()
	log.Info("callback dispatched",
		slog.String("method", p.TargetInfo.Method),
		slog.String("url", p.TargetInfo.Callback),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}
