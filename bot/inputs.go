package bot

import (
	"log/slog"
	"strings"

	"github.com/Obiajulu-gif/copperx-telegram/bot/session"
	"github.com/Obiajulu-gif/copperx-telegram/copperx"
	"github.com/Obiajulu-gif/copperx-telegram/core/logger"
	tghelpers "github.com/Obiajulu-gif/copperx-telegram/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// InProgress reports whether the user has a pending free-text input. Text
// updates are routed to ManagerHandler while this is true.
func (a *App) InProgress(c tele.Context) bool {
	sess := session.FromContext(c)
	return sess != nil && sess.Awaiting != session.AwaitNone
}

// ManagerHandler consumes the pending free-text input. Invalid input keeps the
// awaiting marker so the user can simply try again.
func (a *App) ManagerHandler(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}

	text := c.Text()
	switch sess.Awaiting {
	case session.AwaitEmail:
		return a.consumeEmail(c, sess, text)
	case session.AwaitOTP:
		return a.consumeOTP(c, sess, text)
	case session.AwaitSendEmail:
		return a.consumeSendRecipient(c, sess, text)
	case session.AwaitSendAmount:
		return a.consumeSendAmount(c, sess, text)
	case session.AwaitWithdrawAmount:
		return a.consumeWithdrawAmount(c, sess, text)
	case session.AwaitWithdrawAddress:
		return a.consumeWithdrawAddress(c, sess, text)
	default:
		sess.Awaiting = session.AwaitNone
		return tghelpers.SendText(c, msgDontUnderstand)
	}
}

func (a *App) consumeEmail(c tele.Context, sess *session.Session, text string) error {
	email, ok := normalizeEmail(text)
	if !ok {
		return tghelpers.SendText(c, msgInvalidEmail)
	}

	sess.Auth = &session.AuthData{Email: email}
	sess.Awaiting = session.AwaitOTP

	ctx := tghelpers.BuildContext(c)
	req, err := a.api.RequestEmailOTP(ctx, email)
	if err != nil {
		logger.Warn(ctx, "service.auth", "otp.request",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		sess.Auth = nil
		sess.Awaiting = session.AwaitEmail
		return tghelpers.SendText(c, msgOTPFailed)
	}
	sess.Auth.SID = req.SID

	logger.Info(ctx, "service.auth", "otp.request", slog.String("status", "ok"))
	return tghelpers.SendText(c, msgOTPSent)
}

func (a *App) consumeOTP(c tele.Context, sess *session.Session, text string) error {
	if sess.Auth == nil || sess.Auth.Email == "" || sess.Auth.SID == "" {
		sess.Reset()
		return tghelpers.SendText(c, msgSessionExpiredLogin)
	}

	otp := normalizeOTP(text)
	ctx := tghelpers.BuildContext(c)
	result, err := a.api.AuthenticateWithOTP(ctx, sess.Auth.Email, otp, sess.Auth.SID)
	if err != nil {
		logger.Warn(ctx, "service.auth", "otp.verify",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, msgInvalidOTP)
	}

	sess.Login(result.Token)
	logger.Info(ctx, "service.auth", "otp.verify", slog.String("status", "ok"))

	msg := loginSuccessMessage(result.User)
	// Best effort: a failed KYC lookup never blocks the login.
	if kyc, err := a.api.GetKycStatus(ctx, sess.Token); err == nil && !kycApproved(kyc) {
		msg += "\n\n" + msgKycPending
	}
	return tghelpers.SendMD(c, msg)
}

func kycApproved(records []copperx.KycStatus) bool {
	for _, r := range records {
		if strings.EqualFold(r.Status, "approved") {
			return true
		}
	}
	return false
}

func (a *App) consumeSendRecipient(c tele.Context, sess *session.Session, text string) error {
	recipient, ok := normalizeEmail(text)
	if !ok {
		return tghelpers.SendText(c, msgInvalidRecipient)
	}
	if sess.Transfer == nil {
		sess.Transfer = &session.Transfer{Kind: session.KindSend, Stage: session.StageCollecting}
	}
	sess.Transfer.Recipient = recipient
	sess.Awaiting = session.AwaitSendAmount
	return tghelpers.SendMD(c, sendingToMessage(recipient))
}

func (a *App) consumeSendAmount(c tele.Context, sess *session.Session, text string) error {
	if sess.Transfer == nil || sess.Transfer.Kind != session.KindSend {
		sess.ClearTransfer()
		return tghelpers.SendText(c, msgSessionExpiredSend)
	}

	amount, ok := parseAmount(text)
	if !ok {
		return tghelpers.SendText(c, msgInvalidSendAmount)
	}
	sess.Transfer.Amount = amount
	sess.Awaiting = session.AwaitNone
	return a.renderConfirmation(c, sess)
}

func (a *App) consumeWithdrawAmount(c tele.Context, sess *session.Session, text string) error {
	amount, ok := parseAmount(text)
	if !ok {
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

func (a *App) consumeWithdrawAddress(c tele.Context, sess *session.Session, text string) error {
	t := sess.Transfer
	if t == nil || t.Kind != session.KindWithdraw {
		sess.ClearTransfer()
		return tghelpers.SendText(c, msgSessionExpiredWithdraw)
	}

	addr, ok := normalizeAddress(text)
	if !ok {
		return tghelpers.SendText(c, msgInvalidWalletAddress)
	}
	t.Address = addr
	sess.Awaiting = session.AwaitNone
	return a.renderConfirmation(c, sess)
}

// handleFreeText is the fallback for text that is neither a pending input nor
// a known command. A couple of common intents get real answers.
func (a *App) handleFreeText(c tele.Context) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errNoSession
	}

	text := strings.ToLower(c.Text())
	switch {
	case strings.HasPrefix(text, "/"):
		return a.handleUnknown(c)
	case containsAny(text, "balance", "how much", "check"):
		if !sess.Authenticated {
			return tghelpers.SendText(c, msgLoginRequiredBalance)
		}
		return a.handleBalance(c)
	case containsAny(text, "help", "commands", "what can you do"):
		return a.handleHelp(c)
	default:
		return tghelpers.SendText(c, msgDontUnderstand)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
