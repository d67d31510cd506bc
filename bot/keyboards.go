package bot

import (
	"github.com/Obiajulu-gif/copperx-telegram/bot/session"
	"github.com/Obiajulu-gif/copperx-telegram/copperx"
	"github.com/Obiajulu-gif/copperx-telegram/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Callback action keys. Buttons carry these as the telebot "unique" part;
// the registry dispatches on them.
const (
	cbLogin           = "login"
	cbHelp            = "help"
	cbWallet          = "wallet"
	cbWithdrawMethod  = "withdraw"
	cbConfirmSend     = "confirm_send"
	cbConfirmWithdraw = "confirm_withdraw"
	cbCancel          = "cancel"
)

func welcomeKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("🔑 Login Now", cbLogin)),
		markup.Row(markup.Data("❓ View Help", cbHelp)),
		markup.Row(markup.URL("🌐 Visit Community Support", communityURL)),
	)
	return markup
}

func confirmKeyboard(kind session.TransferKind) *tele.ReplyMarkup {
	confirm := cbConfirmSend
	if kind == session.KindWithdraw {
		confirm = cbConfirmWithdraw
	}
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✅ Yes, Send Payment", Unique: confirm}},
		[]keyboard.InlineBtn{{Text: "❌ No, Cancel Transaction", Unique: cbCancel}},
	)
}

func withdrawMethodKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "🏦 Bank Account", Unique: cbWithdrawMethod, Data: session.MethodBank}},
		[]keyboard.InlineBtn{{Text: "💼 External Wallet", Unique: cbWithdrawMethod, Data: session.MethodWallet}},
	)
}

// walletKeyboard offers a default-wallet switch per non-default wallet.
func walletKeyboard(wallets []copperx.Wallet) *tele.ReplyMarkup {
	var buttons []keyboard.InlineBtn
	for _, w := range wallets {
		if w.IsDefault {
			continue
		}
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   "⭐ Make default: " + w.Name,
			Unique: cbWallet,
			Data:   w.ID,
		})
	}
	if len(buttons) == 0 {
		return nil
	}
	return keyboard.InlineButtons(buttons)
}
