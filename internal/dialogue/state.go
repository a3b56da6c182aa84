// Package dialogue implements the deterministic rule engine driving the
// assistant chat: one utterance in, replies plus a state update out.
package dialogue

// Intent tracks a pending yes/no confirmation left by the previous turn.
type Intent string

const (
	// IntentNone means no confirmation is pending.
	IntentNone Intent = "none"
	// IntentPayBill means a bill-pay quote is awaiting a yes/no answer.
	IntentPayBill Intent = "pay-bill-intent"
	// IntentQRShown means a payment QR is on screen awaiting "done"/"paid".
	IntentQRShown Intent = "qr-shown"
)

// BlockStep tracks progress through the card-blocking sub-dialogue.
type BlockStep string

const (
	// BlockNone means no blocking flow is active.
	BlockNone BlockStep = "none"
	// BlockAwaitingReason means the next utterance is captured as the reason.
	BlockAwaitingReason BlockStep = "reason"
	// BlockAwaitingConfirm means the flow is waiting for a final "yes".
	BlockAwaitingConfirm BlockStep = "confirm"
)

// State is the dialogue state carried between turns of one chat session.
// The zero value is a fresh session.
type State struct {
	LastIntent  Intent    `json:"last_intent,omitempty"`
	BlockStep   BlockStep `json:"block_step,omitempty"`
	BlockReason string    `json:"block_reason,omitempty"`
	CardBlocked bool      `json:"card_blocked,omitempty"`
}

// intent normalizes the zero value to IntentNone.
func (s State) intent() Intent {
	if s.LastIntent == "" {
		return IntentNone
	}
	return s.LastIntent
}

// blockStep normalizes the zero value to BlockNone.
func (s State) blockStep() BlockStep {
	if s.BlockStep == "" {
		return BlockNone
	}
	return s.BlockStep
}

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe
// pending-intent transitions, e.g. for metrics.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

func recordTransition(from, to State) {
	if from.intent() != to.intent() {
		transitionRecorder(string(from.intent()), string(to.intent()))
	}
}
