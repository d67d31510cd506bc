// Package notifier subscribes to the Copperx realtime feed over the Pusher
// Channels protocol and pushes deposit alerts to a Telegram chat.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Obiajulu-gif/copperx-telegram/copperx"
	"github.com/Obiajulu-gif/copperx-telegram/core/logger"
	"log/slog"
)

// Config holds realtime notification settings. The subscription needs an API
// token of its own because deposit events are organization-scoped, not tied
// to any one chat user's login.
type Config struct {
	Enabled        bool   `yaml:"enabled" envconfig:"NOTIFICATIONS_ENABLED"`
	PusherKey      string `yaml:"pusher_key" envconfig:"PUSHER_KEY"`
	PusherCluster  string `yaml:"pusher_cluster" envconfig:"PUSHER_CLUSTER"`
	OrganizationID string `yaml:"organization_id" envconfig:"COPPERX_ORGANIZATION_ID"`
	APIToken       string `yaml:"api_token" envconfig:"COPPERX_API_TOKEN"`
	ChatID         int64  `yaml:"chat_id" envconfig:"NOTIFICATIONS_CHAT_ID"`
}

func (c Config) ready() bool {
	return c.Enabled &&
		c.PusherKey != "" &&
		c.PusherCluster != "" &&
		c.OrganizationID != "" &&
		c.APIToken != "" &&
		c.ChatID != 0
}

// SendFunc delivers one Markdown message to a Telegram chat.
type SendFunc func(chatID int64, text string) error

// Notifier maintains a websocket subscription to the private organization
// channel and forwards deposit events. Reconnects with backoff on any error.
type Notifier struct {
	cfg  Config
	api  copperx.API
	send SendFunc

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func New(cfg Config, api copperx.API, send SendFunc) *Notifier {
	return &Notifier{cfg: cfg, api: api, send: send}
}

// Start launches the subscription loop. With notifications disabled or
// credentials missing it logs once and does nothing.
func (n *Notifier) Start(ctx context.Context) {
	if !n.cfg.ready() {
		logger.Info(ctx, "notifier", "notifier.disabled",
			slog.Bool("enabled", n.cfg.Enabled),
		)
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.done = make(chan struct{})

	go n.loop(runCtx)
}

// Stop tears down the subscription and waits for the loop to exit.
func (n *Notifier) Stop() {
	n.once.Do(func() {
		if n.cancel == nil {
			return
		}
		n.cancel()
		<-n.done
	})
}

func (n *Notifier) loop(ctx context.Context) {
	defer close(n.done)

	if user, err := n.api.GetUserProfile(ctx, n.cfg.APIToken); err != nil {
		logger.Warn(ctx, "notifier", "token.verify",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	} else {
		logger.Info(ctx, "notifier", "token.verify",
			slog.String("status", "ok"),
			slog.String("org_id", user.OrganizationID),
		)
	}

	backoff := time.Second
	for {
		err := n.runConn(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn(ctx, "notifier", "pusher.disconnect",
			slog.String("err", errString(err)),
			slog.Duration("retry_in", backoff),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// pusherEnvelope is the outer frame of every Pusher protocol message. Data is
// double-encoded: a JSON string holding the actual JSON document.
type pusherEnvelope struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (n *Notifier) runConn(ctx context.Context) error {
	url := fmt.Sprintf("wss://ws-%s.pusher.com/app/%s?protocol=7&client=copperx-telegram&version=1.0",
		n.cfg.PusherCluster, n.cfg.PusherKey)

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("notifier: dial pusher: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "shutdown")

	channel := "private-org-" + n.cfg.OrganizationID

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var env pusherEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Warn(ctx, "notifier", "pusher.frame",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			continue
		}

		switch env.Event {
		case "pusher:connection_established":
			if err := n.subscribe(ctx, conn, env.Data, channel); err != nil {
				return err
			}
		case "pusher_internal:subscription_succeeded":
			logger.Info(ctx, "notifier", "pusher.subscribed",
				slog.String("channel", channel),
			)
		case "pusher:ping":
			pong, _ := json.Marshal(pusherEnvelope{Event: "pusher:pong"})
			if err := conn.Write(ctx, websocket.MessageText, pong); err != nil {
				return err
			}
		case "pusher:error":
			logger.Warn(ctx, "notifier", "pusher.error",
				slog.String("data", string(env.Data)),
			)
		case "deposit":
			n.handleDeposit(ctx, env.Data)
		}
	}
}

// subscribe signs the private channel via the payout API and sends the
// pusher:subscribe frame.
func (n *Notifier) subscribe(ctx context.Context, conn *websocket.Conn, data json.RawMessage, channel string) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("notifier: connection_established frame: %w", err)
	}
	var hello struct {
		SocketID string `json:"socket_id"`
	}
	if err := json.Unmarshal([]byte(encoded), &hello); err != nil {
		return fmt.Errorf("notifier: connection_established data: %w", err)
	}

	auth, err := n.api.AuthenticatePusher(ctx, n.cfg.APIToken, hello.SocketID, channel)
	if err != nil {
		return fmt.Errorf("notifier: channel auth: %w", err)
	}

	sub := struct {
		Event string `json:"event"`
		Data  struct {
			Channel     string `json:"channel"`
			Auth        string `json:"auth"`
			ChannelData string `json:"channel_data,omitempty"`
		} `json:"data"`
	}{Event: "pusher:subscribe"}
	sub.Data.Channel = channel
	sub.Data.Auth = auth.Auth
	sub.Data.ChannelData = auth.ChannelData

	frame, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, frame)
}

// depositEvent mirrors the payload of the "deposit" channel event.
type depositEvent struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Network       string `json:"network"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

func (n *Notifier) handleDeposit(ctx context.Context, data json.RawMessage) {
	payload := []byte(data)
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		payload = []byte(encoded)
	}

	var dep depositEvent
	if err := json.Unmarshal(payload, &dep); err != nil {
		logger.Warn(ctx, "notifier", "deposit.decode",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}

	logger.Info(ctx, "notifier", "deposit.event",
		slog.String("amount", dep.Amount),
		slog.String("currency", dep.Currency),
		slog.String("network", dep.Network),
		slog.String("transfer_id", dep.TransactionID),
	)

	if err := n.send(n.cfg.ChatID, depositAlert(dep)); err != nil {
		logger.Error(ctx, "notifier", "deposit.notify",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func depositAlert(dep depositEvent) string {
	b := strings.Builder{}
	b.WriteString("💰 *New Deposit Received*\n\n")
	currency := dep.Currency
	if currency == "" {
		currency = "USDC"
	}
	fmt.Fprintf(&b, "Amount: %s %s\n", dep.Amount, currency)
	if dep.Network != "" {
		fmt.Fprintf(&b, "Network: %s\n", dep.Network)
	}
	if dep.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", dep.Status)
	}
	if dep.TransactionID != "" {
		fmt.Fprintf(&b, "Transaction: `%s`\n", dep.TransactionID)
	}
	b.WriteString("\nUse /balance to check your updated balance.")
	return b.String()
}

func errString(err error) string {
	if err == nil {
		return "connection closed"
	}
	return err.Error()
}
