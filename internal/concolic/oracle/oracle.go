// Package oracle implements the oracle client (C5): it serialises a query
// to a remote HTTP endpoint and parses the verdict and assignment. The
// small multi-agent prompting service behind the endpoint is out of
// scope — only this wire protocol is.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/funvibe/concolic/internal/concolic/heap"
	"github.com/funvibe/concolic/internal/concolic/sourcectx"
)

const (
	defaultURL            = "http://127.0.0.1:8000/solve"
	defaultTimeoutSeconds = 60
)

// Config holds the oracle's network settings, read from environment
// variables SERVICE_URL / TIMEOUT_SECONDS per spec §4.5, with in-process
// overrides for tests.
type Config struct {
	URL     string
	Timeout time.Duration
}

// ConfigFromEnv reads SERVICE_URL / TIMEOUT_SECONDS, defaulting to
// http://127.0.0.1:8000/solve and 60s.
func ConfigFromEnv() Config {
	cfg := Config{URL: defaultURL, Timeout: defaultTimeoutSeconds * time.Second}
	if url := os.Getenv("SERVICE_URL"); url != "" {
		cfg.URL = url
	}
	if raw := os.Getenv("TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

// Request is the wire request body (spec §4.5). Fields other than
// Constraints and Hint are omitted when empty via `omitempty`.
type Request struct {
	Constraints                []string                  `json:"constraints"`
	HeapState                  *heap.Snapshot             `json:"heap_state,omitempty"`
	ParameterTypeConstraints   map[string]string          `json:"parameter_type_constraints,omitempty"`
	SourceContext              *sourcectx.Context         `json:"source_context,omitempty"`
	Hint                       string                     `json:"hint"`
}

// Result is the oracle's verdict vocabulary.
type Result string

const (
	ResultSAT      Result = "SAT"
	ResultUNSAT    Result = "UNSAT"
	ResultUNKNOWN  Result = "UNKNOWN"
	ResultDontKnow Result = "DONT_KNOW"
)

// Response is the wire response body (spec §4.5). Valuation is only
// populated on SAT and is an array of (typically single-key) objects.
type Response struct {
	Result    Result                   `json:"result"`
	Valuation []map[string]interface{} `json:"valuation,omitempty"`
}

// Client is the oracle HTTP client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logrus.Entry
}

// NewClient builds a Client with the given config and logger. If log is
// nil, a standard logrus entry is used.
func NewClient(cfg Config, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// Solve posts req to the configured endpoint. Any I/O error, timeout,
// non-2xx status, empty body, or parse failure maps to a DONT_KNOW
// Response with a nil error — this is not a Go error return because the
// caller (C7) has a defined fallback behavior for every one of these
// cases, matching spec §4.5/§7.
func (c *Client) Solve(ctx context.Context, req Request) Response {
	if req.Hint == "" {
		req.Hint = "solve-" + uuid.NewString()
	}
	log := c.log.WithField("hint", req.Hint)

	body, err := json.Marshal(req)
	if err != nil {
		log.WithError(err).Warn("oracle: failed to marshal request")
		return Response{Result: ResultDontKnow}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Warn("oracle: failed to build request")
		return Response{Result: ResultDontKnow}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.WithError(err).Warn("oracle: request failed")
		return Response{Result: ResultDontKnow}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("status", resp.StatusCode).Warn("oracle: non-2xx response")
		return Response{Result: ResultDontKnow}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil || len(raw) == 0 {
		log.Warn("oracle: empty or unreadable response body")
		return Response{Result: ResultDontKnow}
	}

	var parsed Response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.WithError(err).Warn("oracle: garbled response body")
		return Response{Result: ResultDontKnow}
	}
	if parsed.Result == "" {
		log.Warn("oracle: response missing result field")
		return Response{Result: ResultDontKnow}
	}

	log.WithField("result", parsed.Result).Debug("oracle: solve complete")
	return parsed
}

// String renders a Request for diagnostic logging without the bulk of
// heap_state/source_context.
func (r Request) String() string {
	return fmt.Sprintf("Request{constraints=%d, hint=%s}", len(r.Constraints), r.Hint)
}
