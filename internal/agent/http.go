package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Config holds the HTTP adapter settings. Timeout bounds every round trip;
// retries apply only to connection failures, timeouts and 5xx responses.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// HTTPClient talks to the classification service over HTTP. It is stateless
// and safe for concurrent use.
type HTTPClient struct {
	baseURL      string
	client       *http.Client
	maxRetries   int
	retryBackoff time.Duration
}

func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	backoff := cfg.RetryBackoff
	if backoff == 0 {
		backoff = 250 * time.Millisecond
	}

	return &HTTPClient{
		baseURL:      cfg.BaseURL,
		client:       &http.Client{Timeout: timeout},
		maxRetries:   cfg.MaxRetries,
		retryBackoff: backoff,
	}
}

type transactionsRequest struct {
	Transactions []TransactionPayload `json:"transactions"`
}

type extractResponse struct {
	Transactions []ExtractedTransaction `json:"transactions"`
}

type matchResponse struct {
	MatchedResults []MatchResult `json:"matched_results"`
}

type categorizeResponse struct {
	CategorizedResults []CategoryResult `json:"categorized_results"`
}

type discrepancyResponse struct {
	DiscrepancyResults []DiscrepancyResult `json:"discrepancy_results"`
}

type reconcileResponse struct {
	Transactions []ApprovalResult `json:"transactions"`
}

func (c *HTTPClient) Extract(ctx context.Context, file Upload) ([]ExtractedTransaction, error) {
	var resp extractResponse
	if err := c.postFile(ctx, "/extract-transactions", file, &resp); err != nil {
		return nil, err
	}

	for _, r := range resp.Transactions {
		if r.TransactionID == "" {
			return nil, fmt.Errorf("%w: extraction result missing transaction_id", ErrProtocol)
		}
	}

	return resp.Transactions, nil
}

func (c *HTTPClient) Match(ctx context.Context, txs []TransactionPayload) ([]MatchResult, error) {
	var resp matchResponse
	if err := c.postJSON(ctx, "/match-invoices", transactionsRequest{Transactions: txs}, &resp); err != nil {
		return nil, err
	}

	for _, r := range resp.MatchedResults {
		if r.TransactionID == "" {
			return nil, fmt.Errorf("%w: match result missing transaction_id", ErrProtocol)
		}

		if r.Status != "matched" && r.Status != "unmatched" {
			return nil, fmt.Errorf("%w: unknown match status %q", ErrProtocol, r.Status)
		}
	}

	return resp.MatchedResults, nil
}

func (c *HTTPClient) Categorize(ctx context.Context, txs []TransactionPayload) ([]CategoryResult, error) {
	var resp categorizeResponse
	if err := c.postJSON(ctx, "/categorize", transactionsRequest{Transactions: txs}, &resp); err != nil {
		return nil, err
	}

	for _, r := range resp.CategorizedResults {
		if r.TransactionID == "" {
			return nil, fmt.Errorf("%w: category result missing transaction_id", ErrProtocol)
		}
	}

	return resp.CategorizedResults, nil
}

func (c *HTTPClient) DetectDiscrepancies(ctx context.Context, txs []TransactionPayload) ([]DiscrepancyResult, error) {
	var resp discrepancyResponse
	if err := c.postJSON(ctx, "/detect-discrepancies", transactionsRequest{Transactions: txs}, &resp); err != nil {
		return nil, err
	}

	for _, r := range resp.DiscrepancyResults {
		if r.TransactionID == "" {
			return nil, fmt.Errorf("%w: discrepancy result missing transaction_id", ErrProtocol)
		}
	}

	return resp.DiscrepancyResults, nil
}

func (c *HTTPClient) Approve(ctx context.Context, txs []TransactionPayload) ([]ApprovalResult, error) {
	var resp reconcileResponse
	if err := c.postJSON(ctx, "/reconcile", transactionsRequest{Transactions: txs}, &resp); err != nil {
		return nil, err
	}

	for _, r := range resp.Transactions {
		if r.TransactionID == "" {
			return nil, fmt.Errorf("%w: approval result missing transaction_id", ErrProtocol)
		}
	}

	return resp.Transactions, nil
}

func (c *HTTPClient) FullReconciliation(ctx context.Context, file Upload) (*FullResult, error) {
	var resp FullResult
	if err := c.postFile(ctx, "/full-reconciliation", file, &resp); err != nil {
		return nil, err
	}

	for _, tx := range resp.Transactions {
		if tx.TransactionID == "" {
			return nil, fmt.Errorf("%w: workflow transaction missing transaction_id", ErrProtocol)
		}
	}

	return &resp, nil
}

func (c *HTTPClient) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var status HealthStatus
	if err := c.send(req, nil, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.send(req, payload, out)
}

func (c *HTTPClient) postFile(ctx context.Context, path string, file Upload, out any) error {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", file.Filename)
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}

	if _, err := part.Write(file.Data); err != nil {
		return fmt.Errorf("writing form file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req, buf.Bytes(), out)
}

// send executes the request with bounded retries. The body is kept as bytes
// so each attempt gets a fresh reader. Exhausted retries surface as
// ErrUnavailable; a response that cannot be decoded is ErrProtocol.
func (c *HTTPClient) send(req *http.Request, body []byte, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return fmt.Errorf("%w: %v", ErrUnavailable, req.Context().Err())
			case <-time.After(c.retryBackoff << (attempt - 1)):
			}
		}

		attemptReq := req.Clone(req.Context())
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
			attemptReq.ContentLength = int64(len(body))
		}

		resp, err := c.client.Do(attemptReq)
		if err != nil {
			lastErr = err
			continue
		}

		retryable, err := c.handleResponse(resp, out)
		if err == nil {
			return nil
		}

		if !retryable {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *HTTPClient) handleResponse(resp *http.Response, out any) (retryable bool, err error) {
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("server returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		// The service understood and rejected the request; retrying
		// the same payload cannot help.
		return false, fmt.Errorf("%w: server returned %d", ErrProtocol, resp.StatusCode)
	}

	if out == nil {
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%w: decoding response: %v", ErrProtocol, err)
	}

	return false, nil
}
