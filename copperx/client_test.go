package copperx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthenticateWithOTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/email-otp/authenticate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["email"] != "a@b.co" || payload["otp"] != "123456" || payload["sid"] != "sid-1" {
			t.Errorf("payload = %v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken": "tok-1",
			"user":        map[string]any{"email": "a@b.co", "organizationId": "org-1"},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	res, err := c.AuthenticateWithOTP(context.Background(), "a@b.co", "123456", "sid-1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if res.Token != "tok-1" || res.User.OrganizationID != "org-1" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSendFundsPayloadByRecipientShape(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		got = map[string]string{}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr-1", "status": "pending"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})

	if _, err := c.SendFunds(context.Background(), "tok", "user@example.com", 10.5); err != nil {
		t.Fatalf("send to email: %v", err)
	}
	if got["email"] != "user@example.com" || got["walletAddress"] != "" {
		t.Fatalf("email payload = %v", got)
	}
	if got["amount"] != "10.5" || got["currency"] != "USDC" {
		t.Fatalf("payload = %v", got)
	}

	if _, err := c.SendFunds(context.Background(), "tok", "0xabcdef0123456789", 1); err != nil {
		t.Fatalf("send to address: %v", err)
	}
	if got["walletAddress"] != "0xabcdef0123456789" || got["email"] != "" {
		t.Fatalf("address payload = %v", got)
	}
}

func TestAPIErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.GetWallets(context.Background(), "bad-token")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code() != "HTTP_401" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestGetTransfersPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{{"id": "t1", "type": "send"}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	transfers, err := c.GetTransfers(context.Background(), "tok", 2, 5)
	if err != nil {
		t.Fatalf("transfers: %v", err)
	}
	if len(transfers) != 1 || transfers[0].ID != "t1" {
		t.Fatalf("transfers = %+v", transfers)
	}
}
