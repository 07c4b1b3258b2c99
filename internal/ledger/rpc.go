package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Default configuration values.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 1 * time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultBackoffMult  = 2.0
	DefaultSupplyMethod = "get_xcp_supply"
)

// RPCClient implements Ledger over the ledger node's JSON-RPC 2.0 API.
// Queries are sent to the "sql" method and run against its SQLite store.
type RPCClient struct {
	endpoint     string
	username     string
	password     string
	supplyMethod string
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	maxDelay     time.Duration
	backoffMult  float64
	requestID    atomic.Uint64
	logger       *zap.Logger
}

// ClientOption configures RPCClient.
type ClientOption func(*RPCClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *RPCClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *RPCClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *RPCClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *RPCClient) {
		c.maxDelay = d
	}
}

// WithBasicAuth sets HTTP basic auth credentials.
func WithBasicAuth(username, password string) ClientOption {
	return func(c *RPCClient) {
		c.username = username
		c.password = password
	}
}

// WithSupplyMethod overrides the RPC method returning the primary reserve supply.
func WithSupplyMethod(method string) ClientOption {
	return func(c *RPCClient) {
		if method != "" {
			c.supplyMethod = method
		}
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *RPCClient) {
		if l != nil {
			c.logger = l.Named("ledger")
		}
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *RPCClient) {
		c.client = client
	}
}

// NewRPCClient creates a new ledger JSON-RPC client.
func NewRPCClient(endpoint string, opts ...ClientOption) *RPCClient {
	c := &RPCClient{
		endpoint:     endpoint,
		supplyMethod: DefaultSupplyMethod,
		client:       &http.Client{Timeout: DefaultTimeout},
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		maxDelay:     DefaultMaxDelay,
		backoffMult:  DefaultBackoffMult,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Ledger = (*RPCClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error object returned by the ledger node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// sqlParams is the parameter object of the "sql" method.
type sqlParams struct {
	Query    string `json:"query"`
	Bindings []any  `json:"bindings"`
}

// Dialect returns SQLite, the ledger node's storage engine.
func (c *RPCClient) Dialect() Dialect {
	return SQLite
}

// Execute runs query through the "sql" method.
func (c *RPCClient) Execute(ctx context.Context, query string, bindings []any) ([]Row, error) {
	if bindings == nil {
		bindings = []any{}
	}
	var rows []Row
	if err := c.call(ctx, "sql", sqlParams{Query: query, Bindings: bindings}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// TotalSupply calls the dedicated supply method. The node only tracks the
// primary reserve, so asset is informational.
func (c *RPCClient) TotalSupply(ctx context.Context, _ string) (int64, error) {
	var supply json.Number
	if err := c.call(ctx, c.supplyMethod, []any{}, &supply); err != nil {
		return 0, err
	}
	n, ok := toInt64(supply)
	if !ok {
		return 0, fmt.Errorf("decode supply %q", supply.String())
	}
	return n, nil
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *RPCClient) call(ctx context.Context, method string, params any, result any) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying ledger call",
				zap.String("method", method),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = min(time.Duration(float64(delay)*c.backoffMult), c.maxDelay)
		}

		raw, retryable, err := c.attempt(ctx, body)
		if err == nil {
			return decodeResult(raw, result)
		}
		if !retryable {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// attempt sends body once. Transport failures, 429s and non-200 replies are
// retryable; a JSON-RPC error object from the node is final.
func (c *RPCClient) attempt(ctx context.Context, body []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("http request: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("rate limited (429)")
	default:
		return nil, true, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, true, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, false, rpcResp.Error
	}
	return rpcResp.Result, false, nil
}

// decodeResult keeps numbers as json.Number so that 64-bit quantities
// survive intact.
func decodeResult(raw json.RawMessage, result any) error {
	if result == nil || raw == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}
