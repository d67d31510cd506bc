package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryGetOrCreateAndReset(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	sess, err := m.GetOrCreate(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	sess.Login("tok")
	sess.Transfer = &Transfer{Kind: KindSend, Recipient: "a@b.co", Amount: 5}

	again, err := m.GetOrCreate(ctx, 42)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again != sess {
		t.Fatal("expected the same session instance")
	}

	if err := m.Reset(ctx, 42); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if sess.Authenticated || sess.Token != "" || sess.Transfer != nil {
		t.Fatalf("reset did not clear state: %+v", sess)
	}
	if n, _ := m.Len(ctx); n != 1 {
		t.Fatalf("reset must preserve the entry, len = %d", n)
	}
}

func TestMemoryTTLEviction(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	if _, err := m.GetOrCreate(ctx, 1); err != nil {
		t.Fatalf("get: %v", err)
	}

	// The sweeper ticks at minute granularity; expire manually.
	m.mu.Lock()
	m.lastSeen[1] = time.Now().Add(-time.Hour)
	now := time.Now()
	for id, seen := range m.lastSeen {
		if now.Sub(seen) > m.ttl {
			delete(m.sessions, id)
			delete(m.lastSeen, id)
		}
	}
	m.mu.Unlock()

	if n, _ := m.Len(ctx); n != 0 {
		t.Fatalf("len = %d, want 0", n)
	}
}

func TestLockerSerializesSameUser(t *testing.T) {
	l := NewLocker()

	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := l.Lock(7)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("counter = %d, want %d", counter, workers)
	}
	l.mu.Lock()
	if len(l.locks) != 0 {
		t.Fatalf("lock table not drained: %d entries", len(l.locks))
	}
	l.mu.Unlock()
}

func TestLockerDifferentUsersDoNotBlock(t *testing.T) {
	l := NewLocker()

	unlock := l.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := l.Lock(2)
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock for another user blocked")
	}
}

func TestTransferReadyToConfirm(t *testing.T) {
	cases := []struct {
		name string
		t    *Transfer
		want bool
	}{
		{"nil", nil, false},
		{"zero amount", &Transfer{Kind: KindSend, Recipient: "a@b.co"}, false},
		{"send complete", &Transfer{Kind: KindSend, Recipient: "a@b.co", Amount: 1}, true},
		{"send no recipient", &Transfer{Kind: KindSend, Amount: 1}, false},
		{"withdraw no method", &Transfer{Kind: KindWithdraw, Amount: 1}, false},
		{"withdraw bank", &Transfer{Kind: KindWithdraw, Amount: 1, Method: MethodBank}, true},
		{"withdraw wallet no address", &Transfer{Kind: KindWithdraw, Amount: 1, Method: MethodWallet}, false},
		{"withdraw wallet", &Transfer{Kind: KindWithdraw, Amount: 1, Method: MethodWallet, Address: "0xabc"}, true},
	}
	for _, tc := range cases {
		if got := tc.t.ReadyToConfirm(); got != tc.want {
			t.Errorf("%s: ReadyToConfirm() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSessionLoginInvariant(t *testing.T) {
	s := &Session{UserID: 1, Awaiting: AwaitOTP, Auth: &AuthData{Email: "a@b.co", SID: "sid"}}
	s.Login("tok")
	if !s.Authenticated || s.Token != "tok" || s.Awaiting != AwaitNone || s.Auth != nil {
		t.Fatalf("login state: %+v", s)
	}
	s.Reset()
	if s.Authenticated || s.Token != "" {
		t.Fatalf("reset state: %+v", s)
	}
}
