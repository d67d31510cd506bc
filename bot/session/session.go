// Package session owns per-user conversation state: authentication status,
// the single pending free-text input, and in-flight transfer data. Stores are
// keyed by Telegram user id; access for one user is serialized by Locker.
package session

import "context"

// AwaitingInput marks which single piece of free text the engine expects
// next from a user. Empty means no pending input.
type AwaitingInput string

const (
	AwaitNone            AwaitingInput = ""
	AwaitEmail           AwaitingInput = "email"
	AwaitOTP             AwaitingInput = "otp"
	AwaitSendEmail       AwaitingInput = "send_email"
	AwaitSendAmount      AwaitingInput = "send_amount"
	AwaitWithdrawAmount  AwaitingInput = "withdraw_amount"
	AwaitWithdrawAddress AwaitingInput = "withdraw_address"
)

// AuthData is transient state while an OTP login is in progress. SID is the
// server-issued correlation id and must round-trip verbatim.
type AuthData struct {
	Email string `json:"email"`
	SID   string `json:"sid,omitempty"`
}

// TransferKind distinguishes outbound sends from withdrawals.
type TransferKind string

const (
	KindSend     TransferKind = "send"
	KindWithdraw TransferKind = "withdraw"
)

// TransferStage tracks how far a transfer has progressed. Committing is not a
// stored stage: commits happen within a single callback turn.
type TransferStage string

const (
	StageCollecting TransferStage = "collecting"
	StageConfirming TransferStage = "confirming"
)

// Withdrawal methods selected via callback buttons.
const (
	MethodBank   = "bank"
	MethodWallet = "wallet"
)

// Transfer accumulates the pieces of an outbound transfer across turns.
type Transfer struct {
	Kind      TransferKind  `json:"kind"`
	Recipient string        `json:"recipient,omitempty"`
	Address   string        `json:"address,omitempty"`
	Amount    float64       `json:"amount,omitempty"`
	Method    string        `json:"method,omitempty"`
	Stage     TransferStage `json:"stage"`
}

// ReadyToConfirm reports whether every field required for a confirmation
// prompt is present. Confirmation rendering and commits must pass through
// this gate so an incomplete record can never reach the API.
func (t *Transfer) ReadyToConfirm() bool {
	if t == nil || t.Amount <= 0 {
		return false
	}
	switch t.Kind {
	case KindSend:
		return t.Recipient != ""
	case KindWithdraw:
		switch t.Method {
		case MethodBank:
			return true
		case MethodWallet:
			return t.Address != ""
		}
	}
	return false
}

// Session is the conversation state for one user.
type Session struct {
	UserID        int64         `json:"user_id"`
	Authenticated bool          `json:"authenticated"`
	Token         string        `json:"-"`
	Awaiting      AwaitingInput `json:"awaiting"`
	Auth          *AuthData     `json:"auth,omitempty"`
	Transfer      *Transfer     `json:"transfer,omitempty"`
}

// Reset restores every field to its default, keeping the user id. An
// unauthenticated session never carries a token.
func (s *Session) Reset() {
	s.Authenticated = false
	s.Token = ""
	s.Awaiting = AwaitNone
	s.Auth = nil
	s.Transfer = nil
}

// Login records a successful OTP verification. This is the only place the
// token is ever set, which keeps the token/authenticated invariant local.
func (s *Session) Login(token string) {
	s.Token = token
	s.Authenticated = true
	s.Awaiting = AwaitNone
	s.Auth = nil
}

// ClearTransfer drops in-flight transfer data and any pending input.
func (s *Session) ClearTransfer() {
	s.Transfer = nil
	s.Awaiting = AwaitNone
}

// Store is the session persistence contract. GetOrCreate is idempotent and
// creates a defaulted session on first contact; Reset restores defaults in
// place without deleting the entry.
type Store interface {
	GetOrCreate(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Reset(ctx context.Context, userID int64) error
	Len(ctx context.Context) (int, error)
}
