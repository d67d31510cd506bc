package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Obiajulu-gif/copperx-telegram/bot/session"
	"github.com/Obiajulu-gif/copperx-telegram/copperx"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the subset of tele.Context the engine touches.
// Unimplemented methods panic via the embedded nil interface.
type fakeContext struct {
	tele.Context

	user     *tele.User
	chat     *tele.Chat
	text     string
	args     []string
	callback *tele.Callback
	values   map[string]any
	sent     []string
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		user:   &tele.User{ID: userID},
		chat:   &tele.Chat{ID: userID},
		values: make(map[string]any),
	}
}

func (c *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (c *fakeContext) Sender() *tele.User       { return c.user }
func (c *fakeContext) Chat() *tele.Chat         { return c.chat }
func (c *fakeContext) Text() string             { return c.text }
func (c *fakeContext) Args() []string           { return c.args }
func (c *fakeContext) Callback() *tele.Callback { return c.callback }
func (c *fakeContext) Set(key string, val any)  { c.values[key] = val }
func (c *fakeContext) Get(key string) any       { return c.values[key] }

func (c *fakeContext) Send(what any, _ ...any) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	return nil
}

func (c *fakeContext) Respond(_ ...*tele.CallbackResponse) error { return nil }

func (c *fakeContext) lastSent() string {
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

// stubAPI records calls and returns canned responses.
type stubAPI struct {
	otpErr  error
	authErr error
	sid     string
	token   string

	wallets    []copperx.Wallet
	walletsErr error
	balances   []copperx.Balance
	transfers  []copperx.Transfer

	sendResult copperx.TransferResult
	sendErr    error

	balancesCalls int
	sendCalls     int
	walletCalls   int
	bankCalls     int

	sentRecipient string
	sentAddress   string
	sentAmount    float64
}

func (s *stubAPI) RequestEmailOTP(_ context.Context, _ string) (copperx.OTPRequest, error) {
	if s.otpErr != nil {
		return copperx.OTPRequest{}, s.otpErr
	}
	return copperx.OTPRequest{SID: s.sid}, nil
}

func (s *stubAPI) AuthenticateWithOTP(_ context.Context, email, _, _ string) (copperx.AuthResult, error) {
	if s.authErr != nil {
		return copperx.AuthResult{}, s.authErr
	}
	return copperx.AuthResult{Token: s.token, User: copperx.User{Email: email}}, nil
}

func (s *stubAPI) GetUserProfile(context.Context, string) (copperx.User, error) {
	return copperx.User{}, nil
}

func (s *stubAPI) GetKycStatus(context.Context, string) ([]copperx.KycStatus, error) {
	return nil, nil
}

func (s *stubAPI) GetWallets(context.Context, string) ([]copperx.Wallet, error) {
	return s.wallets, s.walletsErr
}

func (s *stubAPI) GetDefaultWallet(context.Context, string) (copperx.Wallet, error) {
	if len(s.wallets) == 0 {
		return copperx.Wallet{}, errors.New("no wallets")
	}
	return s.wallets[0], nil
}

func (s *stubAPI) SetDefaultWallet(context.Context, string, string) error { return nil }

func (s *stubAPI) GetBalances(context.Context, string) ([]copperx.Balance, error) {
	s.balancesCalls++
	return s.balances, nil
}

func (s *stubAPI) GetTransfers(context.Context, string, int, int) ([]copperx.Transfer, error) {
	return s.transfers, nil
}

func (s *stubAPI) SendFunds(_ context.Context, _, recipient string, amount float64) (copperx.TransferResult, error) {
	s.sendCalls++
	s.sentRecipient = recipient
	s.sentAmount = amount
	return s.sendResult, s.sendErr
}

func (s *stubAPI) WithdrawToWallet(_ context.Context, _, address string, amount float64) (copperx.TransferResult, error) {
	s.walletCalls++
	s.sentAddress = address
	s.sentAmount = amount
	return s.sendResult, s.sendErr
}

func (s *stubAPI) WithdrawToBank(_ context.Context, _ string, amount float64) (copperx.TransferResult, error) {
	s.bankCalls++
	s.sentAmount = amount
	return s.sendResult, s.sendErr
}

func (s *stubAPI) AuthenticatePusher(context.Context, string, string, string) (copperx.PusherAuth, error) {
	return copperx.PusherAuth{}, nil
}

func newTestApp(api copperx.API) *App {
	return &App{
		cfg:    &Config{},
		api:    api,
		store:  session.NewMemory(0),
		locker: session.NewLocker(),
	}
}

// invoke runs a handler wrapped with the session middleware, the way the
// runtime does.
func invoke(t *testing.T, app *App, c *fakeContext, h tele.HandlerFunc) error {
	t.Helper()
	return session.Middleware(app.store, app.locker)(h)(c)
}

func loadSession(t *testing.T, app *App, userID int64) *session.Session {
	t.Helper()
	sess, err := app.store.GetOrCreate(context.Background(), userID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return sess
}

func TestStartResetsEverything(t *testing.T) {
	app := newTestApp(&stubAPI{})
	sess := loadSession(t, app, 7)
	sess.Login("tok")
	sess.Awaiting = session.AwaitSendAmount
	sess.Transfer = &session.Transfer{Kind: session.KindSend, Recipient: "a@b.co"}

	c := newFakeContext(7)
	if err := invoke(t, app, c, app.handleStart); err != nil {
		t.Fatalf("start: %v", err)
	}

	sess = loadSession(t, app, 7)
	if sess.Authenticated || sess.Token != "" || sess.Awaiting != session.AwaitNone || sess.Auth != nil || sess.Transfer != nil {
		t.Fatalf("session not reset: %+v", sess)
	}
	if !strings.Contains(c.lastSent(), "Welcome to Copperx Payout Bot") {
		t.Fatalf("unexpected welcome: %q", c.lastSent())
	}
}

func TestLoginFlow(t *testing.T) {
	api := &stubAPI{sid: "sid-1", token: "tok-1"}
	app := newTestApp(api)

	c := newFakeContext(1)
	if err := invoke(t, app, c, app.handleLogin); err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess := loadSession(t, app, 1); sess.Awaiting != session.AwaitEmail {
		t.Fatalf("awaiting = %q, want email", sess.Awaiting)
	}

	// Invalid email leaves the awaiting state untouched.
	c = newFakeContext(1)
	c.text = "not-an-email"
	if err := invoke(t, app, c, app.ManagerHandler); err != nil {
		t.Fatalf("invalid email: %v", err)
	}
	if sess := loadSession(t, app, 1); sess.Awaiting != session.AwaitEmail {
		t.Fatalf("awaiting = %q after invalid email, want email", sess.Awaiting)
	}
	if c.lastSent() != msgInvalidEmail {
		t.Fatalf("got %q", c.lastSent())
	}

	c = newFakeContext(1)
	c.text = " User@Example.COM "
	if err := invoke(t, app, c, app.ManagerHandler); err != nil {
		t.Fatalf("email: %v", err)
	}
	sess := loadSession(t, app, 1)
	if sess.Awaiting != session.AwaitOTP {
		t.Fatalf("awaiting = %q, want otp", sess.Awaiting)
	}
	if sess.Auth == nil || sess.Auth.Email != "user@example.com" || sess.Auth.SID != "sid-1" {
		t.Fatalf("auth data = %+v", sess.Auth)
	}

	// Wrong OTP keeps the user in the otp state.
	api.authErr = errors.New("invalid otp")
	c = newFakeContext(1)
	c.text = "000000"
	if err := invoke(t, app, c, app.ManagerHandler); err != nil {
		t.Fatalf("wrong otp: %v", err)
	}
	if sess := loadSession(t, app, 1); sess.Awaiting != session.AwaitOTP || sess.Authenticated {
		t.Fatalf("session after wrong otp: %+v", sess)
	}

	api.authErr = nil
	c = newFakeContext(1)
	c.text = "123 456"
	if err := invoke(t, app, c, app.ManagerHandler); err != nil {
		t.Fatalf("otp: %v", err)
	}
	sess = loadSession(t, app, 1)
	if !sess.Authenticated || sess.Token != "tok-1" || sess.Awaiting != session.AwaitNone || sess.Auth != nil {
		t.Fatalf("session after login: %+v", sess)
	}
}

func TestSendWithBothArgsGoesToConfirmation(t *testing.T) {
	api := &stubAPI{sendResult: copperx.TransferResult{TransferID: "tr-1", Status: "pending"}}
	app := newTestApp(api)
	loadSession(t, app, 2).Login("tok")

	c := newFakeContext(2)
	c.args = []string{"user@example.com", "10.5"}
	if err := invoke(t, app, c, app.handleSend); err != nil {
		t.Fatalf("send: %v", err)
	}
	sess := loadSession(t, app, 2)
	if sess.Transfer == nil || sess.Transfer.Stage != session.StageConfirming {
		t.Fatalf("transfer = %+v", sess.Transfer)
	}
	if !strings.Contains(c.lastSent(), "Transaction Confirmation Required") {
		t.Fatalf("no confirmation prompt: %q", c.lastSent())
	}

	c = newFakeContext(2)
	if err := invoke(t, app, c, app.cbConfirmSendHandler); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if api.sendCalls != 1 || api.sentRecipient != "user@example.com" || api.sentAmount != 10.5 {
		t.Fatalf("api calls: %+v", api)
	}
	sess = loadSession(t, app, 2)
	if sess.Transfer != nil {
		t.Fatalf("transfer not cleared: %+v", sess.Transfer)
	}
	if !strings.Contains(c.lastSent(), "tr-1") {
		t.Fatalf("no transaction id in %q", c.lastSent())
	}
}

func TestSendFailureKeepsTransfer(t *testing.T) {
	api := &stubAPI{sendErr: errors.New("insufficient funds")}
	app := newTestApp(api)
	sess := loadSession(t, app, 3)
	sess.Login("tok")
	sess.Transfer = &session.Transfer{
		Kind:      session.KindSend,
		Recipient: "user@example.com",
		Amount:    42,
		Stage:     session.StageConfirming,
	}

	c := newFakeContext(3)
	if err := invoke(t, app, c, app.cbConfirmSendHandler); err == nil {
		t.Fatal("expected error from failed send")
	}
	sess = loadSession(t, app, 3)
	if sess.Transfer == nil || sess.Transfer.Amount != 42 {
		t.Fatalf("transfer dropped on failure: %+v", sess.Transfer)
	}
	if !strings.Contains(c.lastSent(), "Transaction Failed") {
		t.Fatalf("got %q", c.lastSent())
	}
}

func TestUnauthenticatedWithdrawLeavesStateUntouched(t *testing.T) {
	app := newTestApp(&stubAPI{})

	c := newFakeContext(4)
	c.args = []string{"25"}
	if err := invoke(t, app, c, app.handleWithdraw); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if c.lastSent() != msgLoginRequired {
		t.Fatalf("got %q", c.lastSent())
	}
	sess := loadSession(t, app, 4)
	if sess.Awaiting != session.AwaitNone || sess.Transfer != nil {
		t.Fatalf("state changed: %+v", sess)
	}
}

func TestWithdrawParsesDollarAmount(t *testing.T) {
	app := newTestApp(&stubAPI{})
	loadSession(t, app, 5).Login("tok")

	c := newFakeContext(5)
	c.args = []string{"$25.00"}
	if err := invoke(t, app, c, app.handleWithdraw); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	sess := loadSession(t, app, 5)
	if sess.Transfer == nil || sess.Transfer.Amount != 25 || sess.Transfer.Kind != session.KindWithdraw {
		t.Fatalf("transfer = %+v", sess.Transfer)
	}
	if c.lastSent() != msgWithdrawMethod {
		t.Fatalf("got %q", c.lastSent())
	}
}

func TestWithdrawWalletFlow(t *testing.T) {
	api := &stubAPI{sendResult: copperx.TransferResult{TransferID: "tr-9"}}
	app := newTestApp(api)
	sess := loadSession(t, app, 6)
	sess.Login("tok")
	sess.Transfer = &session.Transfer{Kind: session.KindWithdraw, Amount: 50, Stage: session.StageCollecting}

	c := newFakeContext(6)
	c.callback = &tele.Callback{Data: "\fwithdraw|wallet"}
	if err := invoke(t, app, c, app.cbWithdrawMethodHandler); err != nil {
		t.Fatalf("method: %v", err)
	}
	sess = loadSession(t, app, 6)
	if sess.Transfer.Method != session.MethodWallet || sess.Awaiting != session.AwaitWithdrawAddress {
		t.Fatalf("session = %+v", sess)
	}

	c = newFakeContext(6)
	c.text = "0x0123456789abcdef0123456789abcdef01234567"
	if err := invoke(t, app, c, app.ManagerHandler); err != nil {
		t.Fatalf("address: %v", err)
	}
	sess = loadSession(t, app, 6)
	if sess.Transfer.Stage != session.StageConfirming {
		t.Fatalf("transfer = %+v", sess.Transfer)
	}

	c = newFakeContext(6)
	if err := invoke(t, app, c, app.cbConfirmWithdrawHandler); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if api.walletCalls != 1 || api.sentAddress == "" || api.sentAmount != 50 {
		t.Fatalf("api calls: %+v", api)
	}
	if sess := loadSession(t, app, 6); sess.Transfer != nil {
		t.Fatalf("transfer not cleared")
	}
}

func TestBalanceWithNoWalletsSendsSingleMessage(t *testing.T) {
	api := &stubAPI{}
	app := newTestApp(api)
	loadSession(t, app, 8).Login("tok")

	c := newFakeContext(8)
	if err := invoke(t, app, c, app.handleBalance); err != nil {
		t.Fatalf("balance: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != msgNoWallets {
		t.Fatalf("sent = %v", c.sent)
	}
	if api.balancesCalls != 0 {
		t.Fatalf("balances fetched for empty wallet list")
	}
}

func TestCancelAlwaysClearsTransfer(t *testing.T) {
	app := newTestApp(&stubAPI{})
	sess := loadSession(t, app, 9)
	sess.Login("tok")
	sess.Transfer = &session.Transfer{Kind: session.KindSend, Recipient: "a@b.co", Amount: 5}
	sess.Awaiting = session.AwaitSendAmount

	c := newFakeContext(9)
	if err := invoke(t, app, c, app.cbCancelHandler); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	sess = loadSession(t, app, 9)
	if sess.Transfer != nil || sess.Awaiting != session.AwaitNone {
		t.Fatalf("session = %+v", sess)
	}
	if !sess.Authenticated {
		t.Fatal("cancel must not log the user out")
	}
	if c.lastSent() != msgCancelled {
		t.Fatalf("got %q", c.lastSent())
	}
}

func TestFreeTextIntents(t *testing.T) {
	api := &stubAPI{wallets: []copperx.Wallet{{ID: "w1", Name: "Main", Network: "Polygon", IsDefault: true}}}
	app := newTestApp(api)

	// Unauthenticated balance intent points at /login.
	c := newFakeContext(10)
	c.text = "how much do I have?"
	if err := invoke(t, app, c, app.handleFreeText); err != nil {
		t.Fatalf("free text: %v", err)
	}
	if c.lastSent() != msgLoginRequiredBalance {
		t.Fatalf("got %q", c.lastSent())
	}

	c = newFakeContext(10)
	c.text = "something unrelated"
	if err := invoke(t, app, c, app.handleFreeText); err != nil {
		t.Fatalf("free text: %v", err)
	}
	if c.lastSent() != msgDontUnderstand {
		t.Fatalf("got %q", c.lastSent())
	}
}

func TestExpiredConfirmIsRejected(t *testing.T) {
	api := &stubAPI{}
	app := newTestApp(api)
	loadSession(t, app, 11).Login("tok")

	c := newFakeContext(11)
	if err := invoke(t, app, c, app.cbConfirmSendHandler); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if c.lastSent() != msgExpiredCommit {
		t.Fatalf("got %q", c.lastSent())
	}
	if api.sendCalls != 0 {
		t.Fatal("send must not be called without a transfer")
	}
}
