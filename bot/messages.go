package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/Obiajulu-gif/copperx-telegram/bot/session"
	"github.com/Obiajulu-gif/copperx-telegram/copperx"
	"github.com/Obiajulu-gif/copperx-telegram/core/telegram/format"
)

const communityURL = "https://t.me/copperxcommunity/2183"

const (
	msgWelcome = "👋 *Welcome to Copperx Payout Bot!*\n\n" +
		"I can help you manage your Copperx account directly from Telegram. Here's what you can do:\n\n" +
		"• Send and receive USDC\n" +
		"• Check wallet balances\n" +
		"• Withdraw funds\n" +
		"• View transaction history\n\n" +
		"To get started, please login to your account:"

	msgHelp = "🤖 *Copperx Bot Commands & Help*\n\n" +
		"*Basic Commands:*\n" +
		"• /start - Start the bot and see main menu\n" +
		"• /login - Login to your Copperx account\n" +
		"• /help - Show this help message\n\n" +
		"*Account & Wallet Commands:*\n" +
		"• /balance - Check your wallet balances\n" +
		"• /deposit - Get deposit instructions\n" +
		"• /history - View transaction history\n\n" +
		"*Transaction Commands:*\n" +
		"• /send - Send USDC to an email\n" +
		"     Example: `/send user@example.com 10.5`\n" +
		"• /withdraw - Withdraw USDC\n" +
		"     Example: `/withdraw 25`\n\n" +
		"*Need Help?*\n" +
		"• 💬 Visit our community: " + communityURL + "\n" +
		"• You can also type questions naturally and I'll try to help!"

	msgLoginRequired        = "You need to login first. Use /login to authenticate."
	msgLoginRequiredBalance = "You need to login first to check your balance. Use /login to authenticate."
	msgUnknownCommand       = "Unknown command. Type /help for available commands."
	msgUnknownAction        = "Unknown action"
	msgDontUnderstand       = "I don't understand that command. Please use /help to see all available commands."
	msgUnexpectedDocument   = "I can't do anything with files. Please use a command like /help."

	msgPromptEmail  = "Please enter your Copperx email address:"
	msgInvalidEmail = "🤔 That doesn't look like a valid email address. Please enter a valid email address:"
	msgOTPSent      = "📬 We've sent a one-time password to your email. Please enter it when you receive it:"
	msgOTPFailed    = "❌ Sorry, we couldn't send the OTP to your email. Please check the email address and try again."
	msgInvalidOTP   = "❌ Invalid OTP. Please try again or use /login to restart the process."

	msgKycPending = "⚠️ Your KYC verification is not yet approved. Some features may be limited until verification completes."

	msgSessionExpiredLogin    = "⚠️ Session expired. Please start again with /login"
	msgSessionExpiredSend     = "⚠️ Session expired. Please start again with /send"
	msgSessionExpiredWithdraw = "⚠️ Session expired. Please start again with /withdraw"

	msgPromptRecipient       = "Please enter the recipient's email address:"
	msgInvalidRecipient      = "🤔 That doesn't look like a valid email address. Please enter a valid recipient email:"
	msgInvalidSendAmount     = "❌ Please enter a valid amount greater than 0. For example: 10.5"
	msgInvalidWithdrawAmount = "❌ Please enter a valid amount greater than 0. For example: 50.25"
	msgPromptWithdrawAmount  = "Please enter the amount you want to withdraw in USDC:"
	msgPromptWithdrawAddress = "Please enter the destination wallet address:"
	msgInvalidWalletAddress  = "❌ That doesn't look like a valid wallet address. Please enter the destination address:"
	msgWithdrawMethod        = "Please select a withdrawal method:"

	msgMissingDetails = "Missing transaction details. Please try again."
	msgExpiredCommit  = "⚠️ Transaction details missing or session expired."
	msgProcessing     = "⏳ Processing your transaction..."
	msgCancelled      = "Operation cancelled. What would you like to do next?"

	msgSendFailed = "❌ *Transaction Failed*\n\n" +
		"Sorry, we couldn't process your transaction. This could be due to:\n" +
		"• Insufficient funds\n" +
		"• Network issues\n" +
		"• Invalid recipient\n\n" +
		"Please try again later or contact support."

	msgNoWallets        = "You don't have any wallets yet."
	msgNoHistory        = "You don't have any transaction history yet."
	msgBalancesFailed   = "Sorry, I couldn't fetch your balances. Please try again later."
	msgDepositFailed    = "Sorry, I couldn't fetch your wallet information. Please try again later."
	msgHistoryFailed    = "Sorry, I couldn't fetch your transaction history. Please try again later."
	msgWalletUpdated    = "Default wallet updated successfully."
	msgWalletFailed     = "Sorry, I couldn't update your default wallet. Please try again later."
	msgLoginRequiredRaw = "You need to login first."
)

// mdSafe escapes user-controlled text for Markdown rendering.
func mdSafe(s string) string {
	escaped, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return escaped
}

func loginSuccessMessage(user copperx.User) string {
	name := format.DerefString(user.FirstName, "there")
	return "🎉 *Login Successful!*\n\n" +
		fmt.Sprintf("Welcome %s, you're now logged in to your Copperx account.\n\n", mdSafe(name)) +
		"*Quick Commands:*\n" +
		"• /balance - Check your wallet balances\n" +
		"• /send - Send USDC to someone\n" +
		"• /withdraw - Withdraw USDC\n" +
		"• /deposit - Get deposit instructions\n\n" +
		"What would you like to do next?"
}

func sendingToMessage(recipient string) string {
	return fmt.Sprintf("📧 Sending to: *%s*\n\nPlease enter the amount in USDC you want to send:", mdSafe(recipient))
}

func confirmSendMessage(t *session.Transfer) string {
	return "📤 *Transaction Confirmation Required*\n\n" +
		"Please review the details carefully:\n\n" +
		fmt.Sprintf("📧 *Recipient:* %s\n", mdSafe(t.Recipient)) +
		fmt.Sprintf("💰 *Amount:* %.2f USDC\n\n", t.Amount) +
		"Is everything correct?"
}

func confirmWithdrawMessage(t *session.Transfer) string {
	b := strings.Builder{}
	b.WriteString("📤 *Withdrawal Confirmation Required*\n\n")
	b.WriteString("Please review the details carefully:\n\n")
	if t.Method == session.MethodWallet {
		fmt.Fprintf(&b, "💼 *Destination:* `%s`\n", t.Address)
	} else {
		b.WriteString("🏦 *Destination:* your linked bank account\n")
	}
	fmt.Fprintf(&b, "💰 *Amount:* %.2f USDC\n\n", t.Amount)
	b.WriteString("Is everything correct?")
	return b.String()
}

func sendSuccessMessage(t *session.Transfer, result copperx.TransferResult) string {
	status := result.Status
	if status == "" {
		status = "Completed"
	}
	return "✅ *Transaction Successfully Completed*\n\n" +
		fmt.Sprintf("You've sent %.2f USDC to %s\n\n", t.Amount, mdSafe(t.Recipient)) +
		fmt.Sprintf("🧾 *Transaction ID:* %s\n", result.TransferID) +
		fmt.Sprintf("📊 *Status:* %s\n\n", status) +
		"Use /balance to check your updated balance."
}

func withdrawSuccessMessage(t *session.Transfer, result copperx.TransferResult) string {
	status := result.Status
	if status == "" {
		status = "Completed"
	}
	dest := "your bank account"
	if t.Method == session.MethodWallet {
		dest = "the external wallet"
	}
	return "✅ *Withdrawal Submitted*\n\n" +
		fmt.Sprintf("You've withdrawn %.2f USDC to %s\n\n", t.Amount, dest) +
		fmt.Sprintf("🧾 *Transaction ID:* %s\n", result.TransferID) +
		fmt.Sprintf("📊 *Status:* %s\n\n", status) +
		"Use /balance to check your updated balance."
}

func balancesMessage(wallets []copperx.Wallet, balances []copperx.Balance) string {
	byWallet := make(map[string]copperx.Balance, len(balances))
	for _, b := range balances {
		byWallet[b.WalletID] = b
	}

	b := strings.Builder{}
	b.WriteString("💰 *Your Wallet Balances*\n\n")
	for _, w := range wallets {
		fmt.Fprintf(&b, "*%s* (%s)\n", mdSafe(w.Name), w.Network)
		if bal, ok := byWallet[w.ID]; ok {
			fmt.Fprintf(&b, "Balance: %s USDC\n\n", bal.Balance)
		} else {
			b.WriteString("Balance: 0.00 USDC\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func depositMessage(wallet copperx.Wallet) string {
	return "💰 *Deposit Instructions*\n\n" +
		"To deposit USDC to your Copperx account, send funds to this address:\n\n" +
		fmt.Sprintf("`%s`\n\n", wallet.Address) +
		fmt.Sprintf("Network: %s\n\n", wallet.Network) +
		fmt.Sprintf("⚠️ Make sure to only send USDC on the %s network!", wallet.Network)
}

func historyMessage(transfers []copperx.Transfer) string {
	b := strings.Builder{}
	b.WriteString("📜 *Recent Transactions*\n\n")
	for i, t := range transfers {
		fmt.Fprintf(&b, "*%d. %s*\n", i+1, strings.ToUpper(t.Type))
		fmt.Fprintf(&b, "Amount: %s USDC\n", t.Amount)
		fmt.Fprintf(&b, "Date: %s\n", formatTransferDate(t.CreatedAt))
		fmt.Fprintf(&b, "Status: %s\n\n", t.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTransferDate(raw string) string {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.Local().Format("02 Jan 2006 15:04")
	}
	return raw
}

func statsMessage(sessions int, senderErrors uint64) string {
	return "📊 *Bot Stats*\n\n" +
		fmt.Sprintf("Active sessions: %d\n", sessions) +
		fmt.Sprintf("Failed outbound sends: %d", senderErrors)
}
