// Package bot implements the Copperx payout conversation engine: command
// handlers, free-text input consumption, and callback flows, wired together
// on top of the shared telegram core.
package bot

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Obiajulu-gif/copperx-telegram/bot/session"
	"github.com/Obiajulu-gif/copperx-telegram/copperx"
	"github.com/Obiajulu-gif/copperx-telegram/core/bootstrap"
	coretelegram "github.com/Obiajulu-gif/copperx-telegram/core/telegram"
	"github.com/Obiajulu-gif/copperx-telegram/core/telegram/commands"
	"github.com/Obiajulu-gif/copperx-telegram/core/telegram/router"
	tgsender "github.com/Obiajulu-gif/copperx-telegram/core/telegram/sender"
	"github.com/Obiajulu-gif/copperx-telegram/core/telegram/ui"
	"github.com/Obiajulu-gif/copperx-telegram/notifier"

	tele "gopkg.in/telebot.v4"
)

// App owns the bot's domain components and exposes the run options the shared
// runtime needs.
type App struct {
	cfg    *Config
	api    copperx.API
	store  session.Store
	locker *session.Locker

	db         *sqlx.DB
	memStore   *session.Memory
	dispatcher *tgsender.Dispatcher
	notifier   *notifier.Notifier
}

// Bootstrap initializes logging, the session backend, and the payout API
// client. The database is only touched when the postgres backend is selected.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:          cfg.CoreConfig(),
		Database:        cfg.Database,
		DisableDatabase: cfg.Session.Backend != SessionBackendPostgres,
	})
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	app := &App{
		cfg:    cfg,
		api:    copperx.NewClient(cfg.API),
		locker: session.NewLocker(),
		db:     res.DB,
	}
	if cfg.Session.Backend == SessionBackendPostgres {
		app.store = session.NewPostgres(res.DB, ttl)
	} else {
		app.memStore = session.NewMemory(ttl)
		app.store = app.memStore
	}
	return app, nil
}

// TelegramRunOptions wires the registry, middleware chain, and routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()

	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: a.handleStart, Description: "Start the bot and see main menu"})
	reg.RegisterCommand("/login", commands.Command{Handler: a.handleLogin, Description: "Login to your Copperx account"})
	reg.RegisterCommand("/balance", commands.Command{Handler: a.handleBalance, Description: "Check your wallet balances"})
	reg.RegisterCommand("/send", commands.Command{Handler: a.handleSend, Description: "Send USDC to an email or wallet"})
	reg.RegisterCommand("/withdraw", commands.Command{Handler: a.handleWithdraw, Description: "Withdraw USDC"})
	reg.RegisterCommand("/deposit", commands.Command{Handler: a.handleDeposit, Description: "Get deposit instructions"})
	reg.RegisterCommand("/history", commands.Command{Handler: a.handleHistory, Description: "View transaction history"})
	reg.RegisterCommand("/help", commands.Command{Handler: a.handleHelp, Description: "Show available commands"})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Show runtime stats",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback(cbLogin, a.cbLoginHandler)
	_ = reg.RegisterCallback(cbHelp, a.cbHelpHandler)
	_ = reg.RegisterCallback(cbWallet, a.cbWalletHandler)
	_ = reg.RegisterCallback(cbWithdrawMethod, a.cbWithdrawMethodHandler)
	_ = reg.RegisterCallback(cbConfirmSend, a.cbConfirmSendHandler)
	_ = reg.RegisterCallback(cbConfirmWithdraw, a.cbConfirmWithdrawHandler)
	_ = reg.RegisterCallback(cbCancel, a.cbCancelHandler)

	var fallbacks ui.FallbackProvider = a
	reg.SetTextFallback(fallbacks.UnknownText())
	reg.SetCallbackNotFound(fallbacks.UnknownCallback())

	middlewares := coretelegram.DefaultMiddlewares(core, nil)
	middlewares = append(middlewares, coretelegram.Middleware{
		Name: "session",
		Use:  session.Middleware(a.store, a.locker),
	})

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: core.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{NotFound: fallbacks.UnknownCallback()}))
	routes = append(routes, router.TextRoutes(a, reg, router.TextOptions{
		UnknownText:     fallbacks.UnknownText(),
		UnknownDocument: fallbacks.UnknownDocument(),
	})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

// UnknownText implements ui.FallbackProvider.
func (a *App) UnknownText() tele.HandlerFunc { return a.handleFreeText }

// UnknownDocument implements ui.FallbackProvider.
func (a *App) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Send(msgUnexpectedDocument)
	}
}

// UnknownCallback implements ui.FallbackProvider.
func (a *App) UnknownCallback() tele.HandlerFunc { return a.cbNotFoundHandler }

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.dispatcher = rt.Dispatcher

	bot := rt.Bot
	send := func(chatID int64, text string) error {
		run := func() error {
			_, err := bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
			return err
		}
		if rt.Dispatcher != nil {
			return rt.Dispatcher.Enqueue(context.Background(), "notify.deposit", "sendMessage", run)
		}
		return run()
	}
	a.notifier = notifier.New(a.cfg.Notifications, a.api, send)
	a.notifier.Start(ctx)
	return nil
}

func (a *App) onStop(context.Context, coretelegram.Runtime) error {
	if a.notifier != nil {
		a.notifier.Stop()
	}
	if a.memStore != nil {
		a.memStore.Close()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
