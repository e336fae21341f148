package pagarme

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_LookupTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/1/transactions/1234567", r.URL.Path)
		require.Equal(t, "ak_test", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{"object":"transaction","id":1234567,"status":"paid","amount":1000,"refunded_amount":300,"payment_method":"credit_card"}`))
	}))
	defer srv.Close()

	tx, err := New(srv.URL+"/1/", srv.Client()).LookupTransaction(context.Background(), "ak_test", "1234567")
	require.NoError(t, err)
	require.Equal(t, int64(1234567), tx.ID)
	require.Equal(t, TransactionStatusPaid, tx.Status)
	require.Equal(t, int64(1000), tx.Amount)
	require.Equal(t, int64(300), tx.RefundedAmount)
}

func TestClient_FindRefunds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/refunds", r.URL.Path)
		require.Equal(t, "tx-1", r.URL.Query().Get("transaction_id"))
		_, _ = w.Write([]byte(`[{"id":"R1","amount":300,"status":"refunded","transaction_id":1},{"id":"R2","amount":200,"status":"pending_refund","transaction_id":1}]`))
	}))
	defer srv.Close()

	refunds, err := New(srv.URL, nil).FindRefunds(context.Background(), "ak", "tx-1")
	require.NoError(t, err)
	require.Len(t, refunds, 2)
	require.Equal(t, "R1", refunds[0].ID)
	require.Equal(t, RefundStatusRefunded, refunds[0].Status)
	require.Equal(t, RefundStatusPendingRefund, refunds[1].Status)
}

func TestClient_RefundTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transactions/77/refund", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Equal(t, "ak", body["api_key"])
		require.EqualValues(t, 500, body["amount"])
		require.Equal(t, false, body["async"])
		_, _ = w.Write([]byte(`{"id":77,"status":"refunded","refunds":[{"id":"re_1","amount":500,"status":"pending_refund"}]}`))
	}))
	defer srv.Close()

	tx, err := New(srv.URL, nil).RefundTransaction(context.Background(), "ak", "77", 500, false)
	require.NoError(t, err)
	require.Len(t, tx.Refunds, 1)
	require.Equal(t, "re_1", tx.Refunds[0].ID)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Transaction not found"}]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).LookupTransaction(context.Background(), "ak", "1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "Transaction not found")
}

func TestClient_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := New(srv.URL, nil).FindRefunds(ctx, "ak", "1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
