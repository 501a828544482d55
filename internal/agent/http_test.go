package agent_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerpilot/ledgerpilot/internal/agent"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *agent.HTTPClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return agent.NewHTTPClient(agent.Config{
		BaseURL:      srv.URL,
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
}

func TestHTTPClient_Match(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/match-invoices", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Transactions []agent.TransactionPayload `json:"transactions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Transactions, 1)
		assert.Equal(t, "tx-1", req.Transactions[0].TransactionID)

		json.NewEncoder(w).Encode(map[string]any{
			"matched_results": []map[string]any{
				{
					"transaction_id":     "tx-1",
					"matched_invoice_id": "INV-001",
					"status":             "matched",
					"justification":      "amount and party agree",
				},
			},
		})
	})

	results, err := client.Match(context.Background(), []agent.TransactionPayload{{TransactionID: "tx-1"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "INV-001", results[0].MatchedInvoiceID)
	assert.Equal(t, "matched", results[0].Status)
}

func TestHTTPClient_Match_UnknownStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"matched_results": []map[string]any{
				{"transaction_id": "tx-1", "status": "maybe"},
			},
		})
	})

	_, err := client.Match(context.Background(), []agent.TransactionPayload{{TransactionID: "tx-1"}})
	require.ErrorIs(t, err, agent.ErrProtocol)
}

func TestHTTPClient_Match_MissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"matched_results": []map[string]any{
				{"status": "matched"},
			},
		})
	})

	_, err := client.Match(context.Background(), []agent.TransactionPayload{{TransactionID: "tx-1"}})
	require.ErrorIs(t, err, agent.ErrProtocol)
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{"categorized_results": []map[string]any{
			{"transaction_id": "tx-1", "category": "Travel"},
		}})
	})

	results, err := client.Categorize(context.Background(), []agent.TransactionPayload{{TransactionID: "tx-1"}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	require.Len(t, results, 1)
	assert.Equal(t, "Travel", results[0].Category)
}

func TestHTTPClient_ExhaustedRetriesAreUnavailable(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.DetectDiscrepancies(context.Background(), []agent.TransactionPayload{{TransactionID: "tx-1"}})
	require.ErrorIs(t, err, agent.ErrUnavailable)

	// Initial attempt plus MaxRetries.
	assert.EqualValues(t, 3, calls.Load())
}

func TestHTTPClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := client.Approve(context.Background(), []agent.TransactionPayload{{TransactionID: "tx-1"}})
	require.ErrorIs(t, err, agent.ErrProtocol)
	assert.EqualValues(t, 1, calls.Load())
}

func TestHTTPClient_MalformedBodyIsProtocolError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	})

	_, err := client.Match(context.Background(), []agent.TransactionPayload{{TransactionID: "tx-1"}})
	require.ErrorIs(t, err, agent.ErrProtocol)
}

func TestHTTPClient_ConnectionRefusedIsUnavailable(t *testing.T) {
	client := agent.NewHTTPClient(agent.Config{
		BaseURL:      "http://127.0.0.1:1",
		Timeout:      time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})

	_, err := client.Health(context.Background())
	require.ErrorIs(t, err, agent.ErrUnavailable)
}

func TestHTTPClient_Extract(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract-transactions", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "feed.csv", header.Filename)

		json.NewEncoder(w).Encode(map[string]any{"transactions": []map[string]any{
			{"transaction_id": "tx-1", "observation": "Transaction data extracted"},
		}})
	})

	results, err := client.Extract(context.Background(), agent.Upload{
		Filename:    "feed.csv",
		ContentType: "text/csv",
		Data:        []byte("date,amount,party\n2024-03-01,100,Acme\n"),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Transaction data extracted", results[0].Observation)
}

func TestHTTPClient_FullReconciliation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/full-reconciliation", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"report": map[string]any{"total": 1, "reconciled": 1},
			"transactions": []map[string]any{
				{
					"transaction_id": "tx-1",
					"date":           "2024-03-01T00:00:00Z",
					"amount":         100,
					"party":          "Acme Corp",
					"status":         "reconciled",
					"agent_steps": []map[string]any{
						{"step": "Matching", "observation": "Matched with invoice INV-001"},
					},
				},
			},
		})
	})

	result, err := client.FullReconciliation(context.Background(), agent.Upload{
		Filename: "feed.csv",
		Data:     []byte("date,amount,party\n2024-03-01,100,Acme Corp\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Report.Total)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "reconciled", result.Transactions[0].Status)
	require.Len(t, result.Transactions[0].AgentSteps, 1)
}

func TestHTTPClient_Health(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"status": "healthy",
			"agents": map[string]string{"matching": "ready"},
		})
	})

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "ready", status.Agents["matching"])
}
