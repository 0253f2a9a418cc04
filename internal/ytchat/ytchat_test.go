package ytchat

import (
	"testing"

	youtube "google.golang.org/api/youtube/v3"
)

func TestConvert(t *testing.T) {
	item := &youtube.LiveChatMessage{
		Id: "m1",
		Snippet: &youtube.LiveChatMessageSnippet{
			DisplayMessage: "hello from youtube",
			PublishedAt:    "2026-08-28T12:00:00Z",
		},
		AuthorDetails: &youtube.LiveChatMessageAuthorDetails{DisplayName: "Alice"},
	}
	msg, ok := convert(item)
	if !ok {
		t.Fatalf("expected a message")
	}
	if msg.User != "alice" || msg.Platform != "youtube" || msg.Text != "hello from youtube" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Ts.IsZero() {
		t.Fatalf("expected parsed timestamp")
	}
}

func TestConvertSkipsNonText(t *testing.T) {
	if _, ok := convert(nil); ok {
		t.Fatalf("nil item must be skipped")
	}
	item := &youtube.LiveChatMessage{
		Snippet:       &youtube.LiveChatMessageSnippet{DisplayMessage: "  "},
		AuthorDetails: &youtube.LiveChatMessageAuthorDetails{DisplayName: "bob"},
	}
	if _, ok := convert(item); ok {
		t.Fatalf("blank messages must be skipped")
	}
}
