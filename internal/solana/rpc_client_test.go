package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/skadziol/sando-seer/internal/domain"
)

func submitClient(url string) *HTTPClient {
	return NewHTTPClient(url, WithSendRate(1000))
}

func TestSendTransactionRateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := submitClient(srv.URL).SendTransaction(context.Background(), []byte("tx"), nil)
	if err == nil {
		t.Fatal("expected error from 429 response")
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited in chain", err)
	}
	if !domain.IsTransient(err) {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestSendTransactionNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := submitClient(srv.URL).SendTransaction(context.Background(), []byte("tx"), nil)
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if !domain.IsTransient(err) {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestSendTransactionRPCRejectionIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32002,"message":"Transaction simulation failed"}}`, req.ID)
	}))
	defer srv.Close()

	_, err := submitClient(srv.URL).SendTransaction(context.Background(), []byte("tx"), nil)
	if err == nil {
		t.Fatal("expected error from RPC rejection")
	}
	if domain.IsTransient(err) {
		t.Fatalf("err = %v, want permanent", err)
	}
}

func TestSendTransactionReturnsSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "sendTransaction" {
			t.Errorf("method = %q, want sendTransaction", req.Method)
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":"Sig1111"}`, req.ID)
	}))
	defer srv.Close()

	sig, err := submitClient(srv.URL).SendTransaction(context.Background(), []byte("tx"), nil)
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "Sig1111" {
		t.Fatalf("signature = %q, want Sig1111", sig)
	}
}

func TestSendTransactionRecoversAfterRateLimit(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":"Sig2222"}`, req.ID)
	}))
	defer srv.Close()

	client := submitClient(srv.URL)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.SendTransaction(ctx, []byte("tx"), nil)
		if !domain.IsTransient(err) {
			t.Fatalf("call %d: err = %v, want transient", i, err)
		}
	}
	sig, err := client.SendTransaction(ctx, []byte("tx"), nil)
	if err != nil {
		t.Fatalf("SendTransaction after rate limit cleared: %v", err)
	}
	if sig != "Sig2222" {
		t.Fatalf("signature = %q, want Sig2222", sig)
	}
}
