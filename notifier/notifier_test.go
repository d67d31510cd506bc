package notifier

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigReady(t *testing.T) {
	full := Config{
		Enabled:        true,
		PusherKey:      "key",
		PusherCluster:  "mt1",
		OrganizationID: "org-1",
		APIToken:       "tok",
		ChatID:         42,
	}
	if !full.ready() {
		t.Fatal("complete config reported not ready")
	}

	disabled := full
	disabled.Enabled = false
	if disabled.ready() {
		t.Fatal("disabled config reported ready")
	}

	noChat := full
	noChat.ChatID = 0
	if noChat.ready() {
		t.Fatal("config without chat id reported ready")
	}
}

func TestHandleDepositDoubleEncodedData(t *testing.T) {
	var gotChat int64
	var gotText string
	n := New(Config{ChatID: 7}, nil, func(chatID int64, text string) error {
		gotChat = chatID
		gotText = text
		return nil
	})

	// Pusher delivers event data as a JSON-encoded string.
	inner, _ := json.Marshal(depositEvent{
		Amount:        "100.50",
		Currency:      "USDC",
		Network:       "Polygon",
		Status:        "completed",
		TransactionID: "tx-1",
	})
	outer, _ := json.Marshal(string(inner))

	n.handleDeposit(context.Background(), outer)

	if gotChat != 7 {
		t.Fatalf("chat id = %d", gotChat)
	}
	for _, want := range []string{"New Deposit Received", "100.50 USDC", "Polygon", "tx-1"} {
		if !strings.Contains(gotText, want) {
			t.Fatalf("message %q missing %q", gotText, want)
		}
	}
}

func TestHandleDepositPlainData(t *testing.T) {
	var gotText string
	n := New(Config{ChatID: 1}, nil, func(_ int64, text string) error {
		gotText = text
		return nil
	})

	n.handleDeposit(context.Background(), json.RawMessage(`{"amount":"5","network":"Base"}`))

	if !strings.Contains(gotText, "5 USDC") || !strings.Contains(gotText, "Base") {
		t.Fatalf("message = %q", gotText)
	}
}
