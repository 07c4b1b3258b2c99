package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

func writeResult(w http.ResponseWriter, id uint64, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func TestRPCClient_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req capturedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		assert.Equal(t, "sql", req.Method)

		var params sqlParams
		require.NoError(t, json.Unmarshal(req.Params, &params))
		assert.Equal(t, "SELECT * FROM orders WHERE status = ?", params.Query)
		assert.Equal(t, []any{"open"}, params.Bindings)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rpc", user)
		assert.Equal(t, "secret", pass)

		writeResult(w, req.ID, []map[string]any{
			{"tx_index": 12345678901, "give_asset": "FOO", "give_quantity": 100000000000000},
		})
	}))
	defer server.Close()

	client := NewRPCClient(server.URL, WithBasicAuth("rpc", "secret"))

	rows, err := client.Execute(context.Background(), "SELECT * FROM orders WHERE status = ?", []any{"open"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, int64(12345678901), rows[0].Int64("tx_index"))
	assert.Equal(t, "FOO", rows[0].String("give_asset"))
	assert.Equal(t, int64(100000000000000), rows[0].Int64("give_quantity"))
	assert.Equal(t, SQLite, client.Dialect())
}

func TestRPCClient_ExecuteNilBindings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req capturedRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.JSONEq(t, `{"query":"SELECT 1","bindings":[]}`, string(req.Params))
		writeResult(w, req.ID, []any{})
	}))
	defer server.Close()

	rows, err := NewRPCClient(server.URL).Execute(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRPCClient_TotalSupply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req capturedRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "get_supply", req.Method)
		writeResult(w, req.ID, int64(2_648_755_000_000_000))
	}))
	defer server.Close()

	client := NewRPCClient(server.URL, WithSupplyMethod("get_supply"))

	supply, err := client.TotalSupply(context.Background(), "SHP")
	require.NoError(t, err)
	assert.Equal(t, int64(2_648_755_000_000_000), supply)
}

func TestRPCClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req capturedRequest
		json.NewDecoder(r.Body).Decode(&req)
		writeResult(w, req.ID, int64(999))
	}))
	defer server.Close()

	client := NewRPCClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	supply, err := client.TotalSupply(context.Background(), "SHP")
	require.NoError(t, err)
	assert.Equal(t, int64(999), supply)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRPCClient_MaxRetriesExceeded(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewRPCClient(server.URL,
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
	)

	_, err := client.Execute(context.Background(), "SELECT 1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRPCClient_RPCError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		var req capturedRequest
		json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]any{
				"code":    -32001,
				"message": "Server is not caught up",
			},
		})
	}))
	defer server.Close()

	client := NewRPCClient(server.URL, WithRetryDelay(time.Millisecond))

	_, err := client.Execute(context.Background(), "SELECT 1", nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32001, rpcErr.Code)
	assert.Equal(t, int32(1), attempts.Load(), "RPC errors are not retried")
}

func TestRPCClient_RetriesMalformedResponse(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Write([]byte(`{"jsonrpc":`))
			return
		}
		var req capturedRequest
		json.NewDecoder(r.Body).Decode(&req)
		writeResult(w, req.ID, []map[string]any{{"asset": "FOO"}})
	}))
	defer server.Close()

	client := NewRPCClient(server.URL, WithRetryDelay(time.Millisecond))

	rows, err := client.Execute(context.Background(), "SELECT asset FROM assets", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FOO", rows[0]["asset"])
	assert.Equal(t, int32(2), attempts.Load())
}

func TestRPCClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRPCClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Execute(ctx, "SELECT 1", nil)
	assert.Error(t, err)
}
