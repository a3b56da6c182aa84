package dialogue

import (
	"regexp"
	"strings"

	"github.com/onecard-labs/cardassist/internal/account"
)

// RuleFallback names the no-match outcome delegated to the remote service.
const RuleFallback = "fallback"

// greetingPattern matches on prefix, like the original assistant did.
// A message starting with "history" therefore greets; this is intentional.
var greetingPattern = regexp.MustCompile(`^(hi|hello|hey|namaste)`)

type rule struct {
	name   string
	match  func(msg string, st State) bool
	handle func(e *Engine, msg string, acct *account.Account, st State) Result
}

// ruleTable returns the priority-ordered dialogue rules. Order is the
// contract: the block-flow captures sit below the keyword rules, so a user
// mid-block-flow typing "balance" gets a balance answer while the flow
// keeps waiting for its reason or confirmation.
func ruleTable() []rule {
	return []rule{
		{
			name:  "greeting",
			match: func(msg string, _ State) bool { return greetingPattern.MatchString(msg) },
			handle: func(_ *Engine, _ string, _ *account.Account, st State) Result {
				st.LastIntent = IntentNone
				return Result{Replies: []Message{Bot(replyGreeting)}, State: st}
			},
		},
		{
			name:  "thanks",
			match: func(msg string, _ State) bool { return strings.Contains(msg, "thank") },
			handle: func(_ *Engine, _ string, _ *account.Account, st State) Result {
				st.LastIntent = IntentNone
				return Result{Replies: []Message{Bot(replyThanks)}, State: st}
			},
		},
		{
			name: "capabilities",
			match: func(msg string, _ State) bool {
				return containsAny(msg, "what can you do", "help", "features")
			},
			handle: func(_ *Engine, _ string, _ *account.Account, st State) Result {
				st.LastIntent = IntentNone
				return Result{Replies: []Message{Bot(replyCapabilities)}, State: st}
			},
		},
		{
			name: "pay_bill_confirm",
			match: func(msg string, st State) bool {
				return st.intent() == IntentPayBill && isAny(msg, "yes", "sure", "okay", "ok")
			},
			handle: func(e *Engine, _ string, acct *account.Account, st State) Result {
				st.LastIntent = IntentQRShown
				return Result{
					Replies: []Message{Bot(replyGeneratingQR)},
					Effect:  &Effect{Kind: EffectShowQR, Payload: e.links.BillLink(acct.Bill.Amount)},
					State:   st,
				}
			},
		},
		{
			name: "pay_bill_decline",
			match: func(msg string, st State) bool {
				return st.intent() == IntentPayBill && isAny(msg, "no", "later")
			},
			handle: func(_ *Engine, _ string, _ *account.Account, st State) Result {
				st.LastIntent = IntentNone
				return Result{Replies: []Message{Bot(replyPayLater)}, State: st}
			},
		},
		{
			name: "payment_done",
			match: func(msg string, st State) bool {
				return st.intent() == IntentQRShown && containsAny(msg, "done", "paid")
			},
			handle: func(_ *Engine, _ string, acct *account.Account, st State) Result {
				st.LastIntent = IntentNone

				paid := acct.Clone()
				paid.Bill.Amount = 0

				return Result{
					Replies: []Message{Bot(replyPaymentAck)},
					Effect:  &Effect{Kind: EffectCloseQR},
					State:   st,
					Account: paid,
				}
			},
		},
		{
			name:  "bill",
			match: func(msg string, _ State) bool { return strings.Contains(msg, "bill") },
			handle: func(_ *Engine, _ string, acct *account.Account, st State) Result {
				if acct.Bill.Amount <= 0 {
					// terminal: no pending intent, so a later "yes" means nothing
					return Result{Replies: []Message{Bot(replyNoBill)}, State: st}
				}

				st.LastIntent = IntentPayBill
				return Result{Replies: []Message{Bot(replyBillQuote(acct.Bill))}, State: st}
			},
		},
		{
			name:  "balance",
			match: func(msg string, _ State) bool { return strings.Contains(msg, "balance") },
			handle: func(_ *Engine, _ string, acct *account.Account, st State) Result {
				return Result{Replies: []Message{Bot(replyBalance(acct))}, State: st}
			},
		},
		{
			name:  "transactions",
			match: func(msg string, _ State) bool { return containsAny(msg, "transactions", "history") },
			handle: func(_ *Engine, _ string, acct *account.Account, st State) Result {
				return Result{Replies: []Message{Bot(replyTransactions(acct))}, State: st}
			},
		},
		{
			name:  "statement",
			match: func(msg string, _ State) bool { return strings.Contains(msg, "statement") },
			handle: func(_ *Engine, _ string, _ *account.Account, st State) Result {
				return Result{
					Replies: []Message{
						Bot(replyStatementInfo),
						{Sender: SenderBot, Text: replyStatementLink, Action: ActionDownloadStatement},
					},
					State: st,
				}
			},
		},
		{
			name:  "analytics",
			match: func(msg string, _ State) bool { return containsAny(msg, "analytics", "spending") },
			handle: func(_ *Engine, _ string, _ *account.Account, st State) Result {
				return Result{
					Replies: []Message{Bot(replyAnalytics)},
					Effect:  &Effect{Kind: EffectShowAnalytics},
					State:   st,
				}
			},
		},
		{
			name:  "track_card",
			match: func(msg string, _ State) bool { return strings.Contains(msg, "track card") },
			handle: func(_ *Engine, _ string, _ *account.Account, st State) Result {
				return Result{Replies: []Message{Bot(replyTrackCard)}, State: st}
			},
		},
		{
			name:  "block_card",
			match: func(msg string, _ State) bool { return strings.Contains(msg, "block card") },
			handle: func(_ *Engine, _ string, _ *account.Account, st State) Result {
				if st.CardBlocked {
					return Result{Replies: []Message{Bot(replyAlreadyBlocked)}, State: st}
				}

				st.BlockStep = BlockAwaitingReason
				return Result{Replies: []Message{Bot(replyAskBlockReason)}, State: st}
			},
		},
		{
			name: "block_reason",
			match: func(_ string, st State) bool {
				return st.blockStep() == BlockAwaitingReason
			},
			handle: func(_ *Engine, msg string, _ *account.Account, st State) Result {
				st.BlockReason = msg
				st.BlockStep = BlockAwaitingConfirm
				return Result{Replies: []Message{Bot(replyAskBlockConfirm)}, State: st}
			},
		},
		{
			name: "block_confirm",
			match: func(msg string, st State) bool {
				return st.blockStep() == BlockAwaitingConfirm && msg == "yes"
			},
			handle: func(_ *Engine, _ string, _ *account.Account, st State) Result {
				st.CardBlocked = true
				st.BlockStep = BlockNone
				return Result{Replies: []Message{Bot(replyCardBlocked)}, State: st}
			},
		},
	}
}

func containsAny(msg string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

func isAny(msg string, words ...string) bool {
	for _, w := range words {
		if msg == w {
			return true
		}
	}
	return false
}
