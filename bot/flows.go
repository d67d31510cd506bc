package bot

import (
	"log/slog"

	"github.com/Obiajulu-gif/copperx-telegram/bot/session"
	"github.com/Obiajulu-gif/copperx-telegram/copperx"
	"github.com/Obiajulu-gif/copperx-telegram/core/logger"
	tghelpers "github.com/Obiajulu-gif/copperx-telegram/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// renderConfirmation moves a transfer to the confirming stage and shows the
// review prompt. Incomplete transfers never pass this gate.
func (a *App) renderConfirmation(c tele.Context, sess *session.Session) error {
	t := sess.Transfer
	if !t.ReadyToConfirm() {
		return tghelpers.SendText(c, msgMissingDetails)
	}
	t.Stage = session.StageConfirming
	sess.Awaiting = session.AwaitNone
	if t.Kind == session.KindWithdraw {
		return tghelpers.SendMD(c, confirmWithdrawMessage(t), confirmKeyboard(t.Kind))
	}
	return tghelpers.SendMD(c, confirmSendMessage(t), confirmKeyboard(t.Kind))
}

// commitTransfer executes a confirmed transfer against the API. On failure the
// transfer record is kept so the user can retry the confirmation.
func (a *App) commitTransfer(c tele.Context, sess *session.Session, kind session.TransferKind) error {
	t := sess.Transfer
	if !sess.Authenticated || t == nil || t.Kind != kind || !t.ReadyToConfirm() {
		return tghelpers.SendText(c, msgExpiredCommit)
	}
	sess.Awaiting = session.AwaitNone

	_ = tghelpers.SendText(c, msgProcessing)

	ctx := tghelpers.BuildContext(c)
	var (
		result copperx.TransferResult
		err    error
	)
	switch {
	case kind == session.KindSend:
		result, err = a.api.SendFunds(ctx, sess.Token, t.Recipient, t.Amount)
	case t.Method == session.MethodWallet:
		result, err = a.api.WithdrawToWallet(ctx, sess.Token, t.Address, t.Amount)
	default:
		result, err = a.api.WithdrawToBank(ctx, sess.Token, t.Amount)
	}
	if err != nil {
		logger.Error(ctx, "service.transfers", "transfer.commit",
			slog.String("status", "fail"),
			slog.String("kind", string(kind)),
			slog.Float64("amount", t.Amount),
			slog.String("err", err.Error()),
		)
		_ = tghelpers.SendMD(c, msgSendFailed)
		return err
	}

	logger.Info(ctx, "service.transfers", "transfer.commit",
		slog.String("status", "ok"),
		slog.String("kind", string(kind)),
		slog.String("transfer_id", result.TransferID),
		slog.Float64("amount", t.Amount),
	)

	msg := sendSuccessMessage(t, result)
	if kind == session.KindWithdraw {
		msg = withdrawSuccessMessage(t, result)
	}
	sess.Transfer = nil
	return tghelpers.SendMD(c, msg)
}
