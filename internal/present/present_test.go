package present

import (
	"strings"
	"testing"

	"github.com/you/babel-chat/internal/core"
)

func TestPresentAlignsLabels(t *testing.T) {
	var b strings.Builder
	c := NewConsole(&b)
	c.Present("alice", []core.Reaction{
		{Kind: core.ReactionDetected, Spoken: true, Lang: "ja", Text: "こんにちは"},
		{Kind: core.ReactionTranslated, Spoken: false, Lang: "en", Text: "hello"},
	})

	out := b.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "" {
		t.Fatalf("expected leading blank line, got %q", lines[0])
	}
	if lines[1] != "\U0001F464 User       : alice" {
		t.Fatalf("unexpected user line: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "\U0001F508 detected   : japanese") {
		t.Fatalf("unexpected detected line: %q", lines[2])
	}
}

func TestPresentMutedIcon(t *testing.T) {
	var b strings.Builder
	c := NewConsole(&b)
	c.Present("bob", []core.Reaction{
		{Kind: core.ReactionTranslated, Spoken: false, Lang: "fr", Text: "bonjour"},
	})
	if !strings.Contains(b.String(), "\U0001F507 translated : french") {
		t.Fatalf("expected muted translated line, got %q", b.String())
	}
}

func TestPresentUnknownLanguage(t *testing.T) {
	var b strings.Builder
	c := NewConsole(&b)
	c.Present("eve", []core.Reaction{
		{Kind: core.ReactionDetected, Spoken: true, Lang: "zz", Text: "???"},
	})
	if !strings.Contains(b.String(), ": unknown") {
		t.Fatalf("expected unknown language name, got %q", b.String())
	}
}
