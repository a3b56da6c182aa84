package dialogue

import (
	"log/slog"
	"strings"

	"github.com/onecard-labs/cardassist/internal/account"
)

// PaymentLinker builds the UPI deep link for a bill amount.
type PaymentLinker interface {
	BillLink(amount int64) string
}

// Result is the outcome of one dialogue turn.
type Result struct {
	// Rule names the matched rule, RuleFallback when nothing matched.
	Rule string
	// Replies are the finalized assistant messages for this turn.
	Replies []Message
	// Effect is the side effect the UI should perform, if any.
	Effect *Effect
	// State is the dialogue state to carry into the next turn.
	State State
	// Account is non-nil when the turn mutated the account snapshot and
	// the caller must persist it.
	Account *account.Account
	// Fallback reports that no local rule matched and the remote fallback
	// service should answer instead.
	Fallback bool
}

// Engine evaluates one utterance against the ordered rule table.
// It performs no I/O; side effects are requested through Result.
type Engine struct {
	links PaymentLinker
	rules []rule
	log   *slog.Logger
}

// NewEngine builds the engine with the fixed rule table.
func NewEngine(links PaymentLinker, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		links: links,
		rules: ruleTable(),
		log:   log,
	}
}

// Process normalizes the utterance and returns the first matching rule's
// outcome. Evaluation order is the priority contract: rules are checked top
// to bottom and the first match wins.
func (e *Engine) Process(utterance string, acct *account.Account, st State) Result {
	msg := strings.ToLower(strings.TrimSpace(utterance))

	for _, r := range e.rules {
		if !r.match(msg, st) {
			continue
		}

		res := r.handle(e, msg, acct, st)
		res.Rule = r.name
		recordTransition(st, res.State)

		e.log.Debug("dialogue rule matched",
			slog.String("rule", r.name),
			slog.String("intent", string(res.State.intent())),
			slog.String("block_step", string(res.State.blockStep())))

		return res
	}

	return Result{Rule: RuleFallback, State: st, Fallback: true}
}
