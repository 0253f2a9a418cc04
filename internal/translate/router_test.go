package translate

import (
	"context"
	"errors"
	"testing"
)

type fakeFree struct {
	out   string
	err   error
	calls int
}

func (f *fakeFree) Translate(_ context.Context, text, dest string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type fakePaid struct {
	out        string
	err        error
	calls      int
	lastSource string
	lastTarget string
}

func (f *fakePaid) TranslatePair(_ context.Context, text, source, target string) (string, error) {
	f.calls++
	f.lastSource = source
	f.lastTarget = target
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func TestRouterGoogleEngine(t *testing.T) {
	free := &fakeFree{out: "bonjour"}
	paid := &fakePaid{out: "nope"}
	r := NewRouter(RouterOptions{Engine: "google", Free: free, Paid: paid})

	if got := r.Translate(context.Background(), "hello", "en", "fr"); got != "bonjour" {
		t.Fatalf("unexpected translation: %q", got)
	}
	if paid.calls != 0 {
		t.Fatalf("paid backend should not be called")
	}
}

func TestRouterDeepLMappedPair(t *testing.T) {
	free := &fakeFree{out: "free"}
	paid := &fakePaid{out: "paid"}
	r := NewRouter(RouterOptions{Engine: "deepl", Free: free, Paid: paid})

	if got := r.Translate(context.Background(), "hello", "en", "ja"); got != "paid" {
		t.Fatalf("unexpected translation: %q", got)
	}
	if paid.lastSource != "EN" || paid.lastTarget != "JA" {
		t.Fatalf("unexpected mapped codes: %s -> %s", paid.lastSource, paid.lastTarget)
	}
	if free.calls != 0 {
		t.Fatalf("free backend should not be called")
	}
}

func TestRouterDeepLUnmappedFallsBack(t *testing.T) {
	free := &fakeFree{out: "free"}
	paid := &fakePaid{out: "paid"}
	r := NewRouter(RouterOptions{Engine: "deepl", Free: free, Paid: paid})

	// "haw" has no DeepL mapping
	if got := r.Translate(context.Background(), "aloha", "haw", "en"); got != "free" {
		t.Fatalf("unexpected translation: %q", got)
	}
	if paid.calls != 0 {
		t.Fatalf("paid backend should not be called for unmapped pair")
	}
}

func TestRouterDeepLFailureFallsBack(t *testing.T) {
	free := &fakeFree{out: "free"}
	paid := &fakePaid{err: errors.New("quota exceeded")}
	r := NewRouter(RouterOptions{Engine: "deepl", Free: free, Paid: paid})

	if got := r.Translate(context.Background(), "hello", "en", "ru"); got != "free" {
		t.Fatalf("unexpected translation: %q", got)
	}
	if paid.calls != 1 || free.calls != 1 {
		t.Fatalf("expected paid then free, got paid=%d free=%d", paid.calls, free.calls)
	}
}

func TestRouterGoogleFailureYieldsEmpty(t *testing.T) {
	free := &fakeFree{err: errors.New("network down")}
	r := NewRouter(RouterOptions{Engine: "google", Free: free})

	if got := r.Translate(context.Background(), "hello", "en", "fr"); got != "" {
		t.Fatalf("expected empty on failure, got %q", got)
	}
}

func TestRouterUnknownEngine(t *testing.T) {
	free := &fakeFree{out: "free"}
	var outcomes []string
	r := NewRouter(RouterOptions{
		Engine: "yandex",
		Free:   free,
		OnCall: func(engine, outcome string) { outcomes = append(outcomes, engine+"/"+outcome) },
	})

	if got := r.Translate(context.Background(), "hello", "en", "fr"); got != "" {
		t.Fatalf("expected empty for unknown engine, got %q", got)
	}
	if free.calls != 0 {
		t.Fatalf("no backend should be called for unknown engine")
	}
	if len(outcomes) != 1 || outcomes[0] != "yandex/error" {
		t.Fatalf("unexpected outcomes: %v", outcomes)
	}
}
