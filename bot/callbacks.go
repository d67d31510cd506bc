package bot

import (
	"log/slog"

	"github.com/Obiajulu-gif/copperx-telegram/bot/session"
	"github.com/Obiajulu-gif/copperx-telegram/core/logger"
	"github.com/Obiajulu-gif/copperx-telegram/core/telegram/callbacks"
	tghelpers "github.com/Obiajulu-gif/copperx-telegram/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

func (a *App) cbLoginHandler(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	return a.promptForEmail(c, sess)
}

func (a *App) cbHelpHandler(c tele.Context) error {
	return a.handleHelp(c)
}

// cbWalletHandler switches the default wallet. Payload is the wallet id.
func (a *App) cbWalletHandler(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	if !sess.Authenticated {
		return tghelpers.SendText(c, msgLoginRequiredRaw)
	}

	walletID := callbacks.CallbackPayload(c)
	if walletID == "" {
		return tghelpers.SendText(c, msgUnknownAction)
	}

	ctx := tghelpers.BuildContext(c)
	if err := a.api.SetDefaultWallet(ctx, sess.Token, walletID); err != nil {
		logger.Error(ctx, "service.wallets", "wallet.set_default",
			slog.String("status", "fail"),
			slog.String("wallet_id", walletID),
			slog.String("err", err.Error()),
		)
		_ = tghelpers.SendText(c, msgWalletFailed)
		return err
	}

	logger.Info(ctx, "service.wallets", "wallet.set_default",
		slog.String("status", "ok"),
		slog.String("wallet_id", walletID),
	)
	return tghelpers.SendText(c, msgWalletUpdated)
}

// cbWithdrawMethodHandler records the chosen payout rail. Payload is "bank"
// or "wallet". A bank withdrawal goes straight to confirmation; a wallet
// withdrawal still needs a destination address.
func (a *App) cbWithdrawMethodHandler(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}

	t := sess.Transfer
	if !sess.Authenticated || t == nil || t.Kind != session.KindWithdraw || t.Amount <= 0 {
		return tghelpers.SendText(c, msgSessionExpiredWithdraw)
	}

	switch callbacks.CallbackPayload(c) {
	case session.MethodBank:
		t.Method = session.MethodBank
		return a.renderConfirmation(c, sess)
	case session.MethodWallet:
		t.Method = session.MethodWallet
		sess.Awaiting = session.AwaitWithdrawAddress
		return tghelpers.SendText(c, msgPromptWithdrawAddress)
	default:
		return tghelpers.SendText(c, msgUnknownAction)
	}
}

func (a *App) cbConfirmSendHandler(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	return a.commitTransfer(c, sess, session.KindSend)
}

func (a *App) cbConfirmWithdrawHandler(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	return a.commitTransfer(c, sess, session.KindWithdraw)
}

// cbCancelHandler aborts whatever flow is in progress. Cancellation always
// works regardless of state.
func (a *App) cbCancelHandler(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}
	sess.ClearTransfer()
	return tghelpers.SendText(c, msgCancelled)
}

func (a *App) cbNotFoundHandler(c tele.Context) error {
	return tghelpers.SendText(c, msgUnknownAction)
}
