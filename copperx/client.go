// Package copperx wraps the Copperx payout REST API consumed by the bot.
package copperx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Obiajulu-gif/copperx-telegram/core/logger"
	"log/slog"
)

const (
	// DefaultBaseURL points at the production payout API.
	DefaultBaseURL = "https://income-api.copperx.io/api"

	defaultDialTimeout     = 5 * time.Second
	defaultTLSHandshake    = 5 * time.Second
	defaultIdleConnTimeout = 30 * time.Second
	defaultClientTimeout   = 30 * time.Second
)

// recipientEmailRe decides whether a send recipient is an email or an
// on-chain address; the API takes a different payload field for each.
var recipientEmailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Config holds payout API settings.
type Config struct {
	BaseURL        string `yaml:"base_url" envconfig:"COPPERX_API_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"COPPERX_API_TIMEOUT_SECONDS"`
}

// API is the payout surface consumed by the conversation engine and notifier.
type API interface {
	RequestEmailOTP(ctx context.Context, email string) (OTPRequest, error)
	AuthenticateWithOTP(ctx context.Context, email, otp, sid string) (AuthResult, error)
	GetUserProfile(ctx context.Context, token string) (User, error)
	GetKycStatus(ctx context.Context, token string) ([]KycStatus, error)
	GetWallets(ctx context.Context, token string) ([]Wallet, error)
	GetDefaultWallet(ctx context.Context, token string) (Wallet, error)
	SetDefaultWallet(ctx context.Context, token, walletID string) error
	GetBalances(ctx context.Context, token string) ([]Balance, error)
	GetTransfers(ctx context.Context, token string, page, limit int) ([]Transfer, error)
	SendFunds(ctx context.Context, token, recipient string, amount float64) (TransferResult, error)
	WithdrawToWallet(ctx context.Context, token, address string, amount float64) (TransferResult, error)
	WithdrawToBank(ctx context.Context, token string, amount float64) (TransferResult, error)
	AuthenticatePusher(ctx context.Context, token, socketID, channelName string) (PusherAuth, error)
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a payout API client with a tuned transport.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := defaultClientTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     defaultIdleConnTimeout,
		TLSHandshakeTimeout: defaultTLSHandshake,
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// RequestEmailOTP starts the email OTP login flow. The returned SID must be
// preserved verbatim for AuthenticateWithOTP.
func (c *Client) RequestEmailOTP(ctx context.Context, email string) (OTPRequest, error) {
	var out OTPRequest
	err := c.do(ctx, http.MethodPost, "/auth/email-otp/request", "", map[string]string{"email": email}, &out)
	if err != nil {
		return OTPRequest{}, err
	}
	return out, nil
}

// AuthenticateWithOTP verifies the OTP and returns the access token.
func (c *Client) AuthenticateWithOTP(ctx context.Context, email, otp, sid string) (AuthResult, error) {
	var raw struct {
		AccessToken string `json:"accessToken"`
		User        User   `json:"user"`
	}
	payload := map[string]string{"email": email, "otp": otp, "sid": sid}
	if err := c.do(ctx, http.MethodPost, "/auth/email-otp/authenticate", "", payload, &raw); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: raw.AccessToken, User: raw.User}, nil
}

// GetUserProfile fetches the authenticated user's profile.
func (c *Client) GetUserProfile(ctx context.Context, token string) (User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// GetKycStatus lists KYC records for the account.
func (c *Client) GetKycStatus(ctx context.Context, token string) ([]KycStatus, error) {
	var out []KycStatus
	if err := c.do(ctx, http.MethodGet, "/kycs", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWallets lists the account's wallets.
func (c *Client) GetWallets(ctx context.Context, token string) ([]Wallet, error) {
	var out []Wallet
	if err := c.do(ctx, http.MethodGet, "/wallets", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDefaultWallet fetches the wallet currently flagged as default.
func (c *Client) GetDefaultWallet(ctx context.Context, token string) (Wallet, error) {
	var out Wallet
	if err := c.do(ctx, http.MethodGet, "/wallets/default", token, nil, &out); err != nil {
		return Wallet{}, err
	}
	return out, nil
}

// SetDefaultWallet marks the given wallet as default.
func (c *Client) SetDefaultWallet(ctx context.Context, token, walletID string) error {
	return c.do(ctx, http.MethodPost, "/wallets/default", token, map[string]string{"walletId": walletID}, nil)
}

// GetBalances fetches per-wallet balances.
func (c *Client) GetBalances(ctx context.Context, token string) ([]Balance, error) {
	var out []Balance
	if err := c.do(ctx, http.MethodGet, "/wallets/balances", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTransfers pages through the account's transfer history.
func (c *Client) GetTransfers(ctx context.Context, token string, page, limit int) ([]Transfer, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	path := "/transfers?page=" + strconv.Itoa(page) + "&limit=" + strconv.Itoa(limit)
	var out []Transfer
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendFunds transfers USDC to an email recipient or wallet address.
func (c *Client) SendFunds(ctx context.Context, token, recipient string, amount float64) (TransferResult, error) {
	payload := map[string]string{
		"amount":      formatAmount(amount),
		"currency":    "USDC",
		"purposeCode": "self",
	}
	if recipientEmailRe.MatchString(recipient) {
		payload["email"] = recipient
	} else {
		payload["walletAddress"] = recipient
	}

	var raw struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/transfers/send", token, payload, &raw); err != nil {
		return TransferResult{}, err
	}
	return TransferResult{TransferID: raw.ID, Status: raw.Status}, nil
}

// WithdrawToWallet moves USDC to an external wallet address.
func (c *Client) WithdrawToWallet(ctx context.Context, token, address string, amount float64) (TransferResult, error) {
	payload := map[string]string{
		"walletAddress": address,
		"amount":        formatAmount(amount),
		"currency":      "USDC",
		"purposeCode":   "self",
	}
	var raw struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/transfers/wallet-withdraw", token, payload, &raw); err != nil {
		return TransferResult{}, err
	}
	return TransferResult{TransferID: raw.ID, Status: raw.Status}, nil
}

// WithdrawToBank starts an offramp withdrawal using the account's saved bank
// details.
func (c *Client) WithdrawToBank(ctx context.Context, token string, amount float64) (TransferResult, error) {
	payload := map[string]string{
		"amount":   formatAmount(amount),
		"currency": "USDC",
	}
	var raw struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/transfers/offramp", token, payload, &raw); err != nil {
		return TransferResult{}, err
	}
	return TransferResult{TransferID: raw.ID, Status: raw.Status}, nil
}

// AuthenticatePusher signs a private-channel subscription for the realtime
// deposit feed.
func (c *Client) AuthenticatePusher(ctx context.Context, token, socketID, channelName string) (PusherAuth, error) {
	payload := map[string]string{
		"socket_id":    socketID,
		"channel_name": channelName,
	}
	var out PusherAuth
	if err := c.do(ctx, http.MethodPost, "/notifications/auth", token, payload, &out); err != nil {
		return PusherAuth{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	endpoint := path
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("copperx: encode %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("copperx: build %s request: %w", endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	took := time.Since(start)
	if err != nil {
		logger.Error(ctx, "copperx", "api.request",
			slog.String("status", "fail"),
			slog.String("endpoint", endpoint),
			slog.String("request_id", requestID),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("copperx: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("copperx: read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Body:     logger.SanitizeLimit(string(data), 256),
		}
		logger.Warn(ctx, "copperx", "api.request",
			slog.String("status", "fail"),
			slog.String("endpoint", endpoint),
			slog.String("request_id", requestID),
			slog.Int("http_code", resp.StatusCode),
			slog.Duration("duration", logger.RoundMS(took)),
		)
		return apiErr
	}

	logger.Debug(ctx, "copperx", "api.request",
		slog.String("status", "ok"),
		slog.String("endpoint", endpoint),
		slog.String("request_id", requestID),
		slog.Int("http_code", resp.StatusCode),
		slog.Duration("duration", logger.RoundMS(took)),
	)

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("copperx: decode %s response: %w", endpoint, err)
	}
	return nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
