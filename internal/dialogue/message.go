package dialogue

// Sender identifies who produced a chat message.
type Sender string

const (
	// SenderUser marks messages typed (or spoken) by the cardholder.
	SenderUser Sender = "user"
	// SenderBot marks finalized assistant replies.
	SenderBot Sender = "bot"
	// SenderBotStream marks the provisional slot a streaming fallback reply
	// occupies until it is finalized. At most one exists per session and it
	// is replaced wholesale on each chunk, never appended to the log.
	SenderBotStream Sender = "bot-stream"
)

// Action tags a reply the UI can act on.
type Action string

// ActionDownloadStatement marks a reply that offers the statement PDF.
const ActionDownloadStatement Action = "download-statement"

// Message is one entry of the append-only session chat log.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
	Action Action `json:"action,omitempty"`
}

// Bot builds a finalized reply from the assistant.
func Bot(text string) Message {
	return Message{Sender: SenderBot, Text: text}
}

// EffectKind names a side effect the engine requests from the UI layer.
type EffectKind string

const (
	// EffectShowQR asks the UI to open the payment QR overlay.
	EffectShowQR EffectKind = "show-qr"
	// EffectCloseQR asks the UI to dismiss the payment QR overlay.
	EffectCloseQR EffectKind = "close-qr"
	// EffectShowAnalytics asks the UI to open the spending analytics overlay.
	EffectShowAnalytics EffectKind = "show-analytics"
)

// Effect is a side effect requested, not executed, by the engine.
type Effect struct {
	Kind EffectKind `json:"kind"`
	// Payload carries the UPI deep link for EffectShowQR.
	Payload string `json:"payload,omitempty"`
}
