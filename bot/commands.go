package bot

import (
	"errors"
	"fmt"

	"github.com/Obiajulu-gif/copperx-telegram/bot/session"
	"github.com/Obiajulu-gif/copperx-telegram/core/logger"
	tghelpers "github.com/Obiajulu-gif/copperx-telegram/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// errNoSession indicates the session middleware did not run for this update.
var errNoSession = errors.New("bot: session missing from context")

func (a *App) handleStart(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	sess.Reset()
	return tghelpers.SendMD(c, msgWelcome, welcomeKeyboard())
}

func (a *App) handleLogin(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	return a.promptForEmail(c, sess)
}

func (a *App) promptForEmail(c tele.Context, sess *session.Session) error {
	sess.Awaiting = session.AwaitEmail
	return tghelpers.SendText(c, msgPromptEmail)
}

func (a *App) handleBalance(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	if !sess.Authenticated {
		return tghelpers.SendText(c, msgLoginRequired)
	}

	ctx := tghelpers.BuildContext(c)
	wallets, err := a.api.GetWallets(ctx, sess.Token)
	if err != nil {
		logger.Error(ctx, "service.wallets", "wallets.fetch",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		_ = tghelpers.SendText(c, msgBalancesFailed)
		return err
	}
	if len(wallets) == 0 {
		return tghelpers.SendText(c, msgNoWallets)
	}

	balances, err := a.api.GetBalances(ctx, sess.Token)
	if err != nil {
		logger.Error(ctx, "service.wallets", "balances.fetch",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		_ = tghelpers.SendText(c, msgBalancesFailed)
		return err
	}

	logger.Debug(ctx, "service.wallets", "balances.render",
		slog.String("status", "ok"),
		slog.Int("wallets", len(wallets)),
	)
	if markup := walletKeyboard(wallets); markup != nil {
		return tghelpers.SendMD(c, balancesMessage(wallets, balances), markup)
	}
	return tghelpers.SendMD(c, balancesMessage(wallets, balances))
}

func (a *App) handleSend(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	if !sess.Authenticated {
		return tghelpers.SendText(c, msgLoginRequired)
	}

	args := c.Args()
	switch len(args) {
	case 0:
		sess.Transfer = &session.Transfer{Kind: session.KindSend, Stage: session.StageCollecting}
		sess.Awaiting = session.AwaitSendEmail
		return tghelpers.SendText(c, msgPromptRecipient)
	case 1:
		sess.Transfer = &session.Transfer{
			Kind:      session.KindSend,
			Recipient: args[0],
			Stage:     session.StageCollecting,
		}
		sess.Awaiting = session.AwaitSendAmount
		return tghelpers.SendText(c, fmt.Sprintf("Sending to: %s\nPlease enter the amount in USDC:", args[0]))
	default:
		// Amount left at zero on a parse failure so the confirmation gate
		// reports missing details instead of sending garbage to the API.
		amount, _ := parseAmount(args[1])
		sess.Transfer = &session.Transfer{
			Kind:      session.KindSend,
			Recipient: args[0],
			Amount:    amount,
			Stage:     session.StageCollecting,
		}
		sess.Awaiting = session.AwaitNone
		return a.renderConfirmation(c, sess)
	}
}

func (a *App) handleWithdraw(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	if !sess.Authenticated {
		return tghelpers.SendText(c, msgLoginRequired)
	}

	args := c.Args()
	if len(args) == 0 {
		sess.Awaiting = session.AwaitWithdrawAmount
		return tghelpers.SendText(c, msgPromptWithdrawAmount)
	}

	amount, ok := parseAmount(args[0])
	if !ok {
		sess.Awaiting = session.AwaitWithdrawAmount
		return tghelpers.SendText(c, msgInvalidWithdrawAmount)
	}
	sess.Transfer = &session.Transfer{
		Kind:   session.KindWithdraw,
		Amount: amount,
		Stage:  session.StageCollecting,
	}
	sess.Awaiting = session.AwaitNone
	return a.promptWithdrawMethod(c)
}

func (a *App) promptWithdrawMethod(c tele.Context) error {
	return tghelpers.SendMD(c, msgWithdrawMethod, withdrawMethodKeyboard())
}

func (a *App) handleDeposit(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	if !sess.Authenticated {
		return tghelpers.SendText(c, msgLoginRequired)
	}

	ctx := tghelpers.BuildContext(c)
	target, err := a.api.GetDefaultWallet(ctx, sess.Token)
	if err != nil {
		// No default configured; fall back to the first wallet.
		wallets, werr := a.api.GetWallets(ctx, sess.Token)
		if werr != nil {
			logger.Error(ctx, "service.wallets", "deposit.fetch",
				slog.String("status", "fail"),
				slog.String("err", werr.Error()),
			)
			_ = tghelpers.SendText(c, msgDepositFailed)
			return werr
		}
		if len(wallets) == 0 {
			return tghelpers.SendText(c, msgNoWallets)
		}
		target = wallets[0]
	}
	return tghelpers.SendMD(c, depositMessage(target))
}

func (a *App) handleHistory(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	if !sess.Authenticated {
		return tghelpers.SendText(c, msgLoginRequired)
	}

	ctx := tghelpers.BuildContext(c)
	transfers, err := a.api.GetTransfers(ctx, sess.Token, 1, historyPageSize)
	if err != nil {
		logger.Error(ctx, "service.transfers", "history.fetch",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		_ = tghelpers.SendText(c, msgHistoryFailed)
		return err
	}
	if len(transfers) == 0 {
		return tghelpers.SendText(c, msgNoHistory)
	}

	logger.Debug(ctx, "service.transfers", "history.render",
		slog.String("status", "ok"),
		slog.Int("transfers", len(transfers)),
	)
	return tghelpers.SendMD(c, historyMessage(transfers))
}

func (a *App) handleHelp(c tele.Context) error {
	return tghelpers.SendMD(c, msgHelp)
}

func (a *App) handleUnknown(c tele.Context) error {
	return tghelpers.SendText(c, msgUnknownCommand)
}

func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sessions, err := a.store.Len(ctx)
	if err != nil {
		return err
	}
	var senderErrors uint64
	if a.dispatcher != nil {
		senderErrors = a.dispatcher.ErrorCount()
	}
	return tghelpers.SendMD(c, statsMessage(sessions, senderErrors))
}

const historyPageSize = 10
