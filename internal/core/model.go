package core

import "time"

// ChatMessage is the unified structure every chat source hands to the
// pipeline.
type ChatMessage struct {
	ID       string    // platform-native message ID (or composed)
	Ts       time.Time // message timestamp
	User     string    // lowercase user identifier
	Platform string    // "twitch" | "youtube"
	Text     string
	Emotes   []EmoteSpan // optional: emote positions within Text
	Echo     bool        // true when the bot itself sent the message
}

// EmoteSpan marks an emote occurrence as an inclusive rune range within the
// raw message text, matching Twitch's emotes tag semantics.
type EmoteSpan struct {
	Start int
	End   int
}

// ReactionKind discriminates the two outputs a message can produce.
type ReactionKind string

const (
	ReactionDetected   ReactionKind = "detected"
	ReactionTranslated ReactionKind = "translated"
)

// Reaction is one unit of output derived from a single inbound message.
type Reaction struct {
	Kind   ReactionKind `json:"type"`
	Spoken bool         `json:"sound"`
	Lang   string       `json:"lang"`
	Text   string       `json:"text"`
}

// SpeechTask addresses one utterance for the speech worker.
type SpeechTask struct {
	Text string
	Lang string
}
