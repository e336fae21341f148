package pagarme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/fx"

	cfgpkg "github.com/fatflowers/postback/pkg/config"
)

// Transaction is the subset of a gateway transaction this service reads.
type Transaction struct {
	ID             int64             `json:"id"`
	Status         TransactionStatus `json:"status"`
	Amount         int64             `json:"amount"`
	RefundedAmount int64             `json:"refunded_amount"`
	PaymentMethod  string            `json:"payment_method"`
	Refunds        []Refund          `json:"refunds,omitempty"`
}

// Refund is a gateway refund record.
type Refund struct {
	ID            string       `json:"id"`
	Amount        int64        `json:"amount"`
	Status        RefundStatus `json:"status"`
	TransactionID int64        `json:"transaction_id"`
}

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pagarme: status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the Pagar.me v1 REST API. Every call takes the api key of
// the configured payment method.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

func NewClient(cfg *cfgpkg.Config) *Client {
	return New(cfg.Pagarme.BaseURL, &http.Client{Timeout: cfg.Pagarme.Timeout})
}

func (c *Client) LookupTransaction(ctx context.Context, apiKey, transactionID string) (*Transaction, error) {
	q := url.Values{"api_key": {apiKey}}
	var tx Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(transactionID)+"?"+q.Encode(), nil, &tx); err != nil {
		return nil, fmt.Errorf("lookup transaction %s: %w", transactionID, err)
	}
	return &tx, nil
}

func (c *Client) FindRefunds(ctx context.Context, apiKey, transactionID string) ([]Refund, error) {
	q := url.Values{"api_key": {apiKey}, "transaction_id": {transactionID}}
	var refunds []Refund
	if err := c.do(ctx, http.MethodGet, "/refunds?"+q.Encode(), nil, &refunds); err != nil {
		return nil, fmt.Errorf("find refunds of %s: %w", transactionID, err)
	}
	return refunds, nil
}

type refundRequest struct {
	APIKey string `json:"api_key"`
	Amount int64  `json:"amount"`
	Async  bool   `json:"async"`
}

// RefundTransaction asks the gateway to refund amount cents and returns the
// transaction with its refund list.
func (c *Client) RefundTransaction(ctx context.Context, apiKey, transactionID string, amount int64, async bool) (*Transaction, error) {
	body, err := json.Marshal(refundRequest{APIKey: apiKey, Amount: amount, Async: async})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	var tx Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions/"+url.PathEscape(transactionID)+"/refund", body, &tx); err != nil {
		return nil, fmt.Errorf("refund transaction %s: %w", transactionID, err)
	}
	return &tx, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("io.ReadAll: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
