// Package translate provides the two translation backends (the free Google
// web endpoint, which also serves language detection, and the DeepL API)
// plus the router that picks between them per message.
package translate

import "context"

// Backend converts text into the destination language. The free backend
// auto-detects the source, so src may be empty.
type Backend interface {
	Translate(ctx context.Context, text, dest string) (string, error)
}

// PairBackend converts text for an explicit source/destination pair using
// backend-native language codes.
type PairBackend interface {
	TranslatePair(ctx context.Context, text, source, target string) (string, error)
}

// Detector guesses the language of text, returning a language code.
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}
