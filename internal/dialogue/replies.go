package dialogue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/onecard-labs/cardassist/internal/account"
)

// Assistant reply copy. Fixed product wording, single language.
const (
	replyGreeting = "Hi! 👋 I can help you check balance, statements, transactions, bill payments, spending analytics & block/track your card."
	replyThanks   = "You're welcome 😊 Anything else I can assist with?"

	replyCapabilities = "I assist with:\n• Balance\n• Transactions\n• Statements\n• Bill payment\n• Spending analytics\n• Track card\n• Block card"

	replyGeneratingQR  = "Generating QR code 🔄 Scan using your UPI app to complete payment."
	replyPayLater      = "No problem, pay anytime by saying **Pay Bill**."
	replyPaymentAck    = "Payment acknowledged 💳 If it doesn't reflect, wait 2–3 minutes."
	replyNoBill        = "🎉 No outstanding bill. You're all clear!"
	replyStatementInfo = "📄 Statement ready.\nTap below to download."
	replyStatementLink = "⬇ Download Statement PDF"
	replyAnalytics     = "📊 Opening spending analytics dashboard…"

	replyTrackCard = "🔎 Card in transit via BlueDart.\nTracking ID: ONE123456789\nExpected delivery: 2–3 days."

	replyAlreadyBlocked  = "🚫 Your card is already blocked."
	replyAskBlockReason  = "Tell me the reason: Lost, Stolen, or Other?"
	replyAskBlockConfirm = "Do you want to permanently block & issue replacement? (yes/no)"
	replyCardBlocked     = "🔒 Card blocked successfully.\nReplacement will arrive in 5 days."
)

func replyBillQuote(bill account.Bill) string {
	return fmt.Sprintf("🧾 Pending bill: ₹%s for %s.\nShall I generate QR for payment?", FormatINR(bill.Amount), bill.Month)
}

func replyBalance(acct *account.Account) string {
	return fmt.Sprintf("💳 Credit Limit: ₹%d\n📉 Used: ₹%d\n🟢 Available: ₹%d\n🧾 Bill due: ₹%d",
		acct.CreditLimit, acct.UsedCredit(), acct.AvailableCredit, acct.Bill.Amount)
}

func replyTransactions(acct *account.Account) string {
	lines := make([]string, 0, len(acct.Transactions))
	for _, t := range acct.Transactions {
		lines = append(lines, fmt.Sprintf("📅 %s — %s — ₹%d", t.Date, t.Merchant, t.Amount))
	}
	return "Here are your recent transactions:\n\n" + strings.Join(lines, "\n")
}

// FormatINR formats an amount with Indian digit grouping: the last three
// digits form one group, every preceding pair another (1,50,000).
func FormatINR(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	if len(digits) > 3 {
		head := digits[:len(digits)-3]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		digits = strings.Join(groups, ",") + "," + digits[len(digits)-3:]
	}

	if negative {
		return "-" + digits
	}
	return digits
}
