package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

type stage string

const (
	stageSeen           stage = "seen"
	stageSanitized      stage = "sanitized"
	stageReactionsBuilt stage = "reactions_built"
	stageSpoken         stage = "spoken"
)

func stageDropped(reason string) stage {
	return stage("dropped_" + reason)
}

// messageTrace records which stages one message passed through, logged at
// debug level for per-message observability.
type messageTrace struct {
	platform string
	user     string
	snippet  string
	id       string
	stages   []stage
}

const traceSnippetLen = 48

func newTrace(platform, user, text string) *messageTrace {
	snippet := text
	if runes := []rune(snippet); len(runes) > traceSnippetLen {
		snippet = string(runes[:traceSnippetLen])
	}
	digest := sha256.Sum256([]byte(platform + "\x1f" + user + "\x1f" + text))
	return &messageTrace{
		platform: platform,
		user:     user,
		snippet:  snippet,
		id:       hex.EncodeToString(digest[:8]),
		stages:   []stage{stageSeen},
	}
}

func (t *messageTrace) mark(s stage) {
	t.stages = append(t.stages, s)
}

func (t *messageTrace) log(msg string) {
	slog.Debug(msg,
		"trace_id", t.id,
		"platform", t.platform,
		"user", t.user,
		"snippet", t.snippet,
		"stages", t.stages,
	)
}
