package translate

import (
	"context"
	"log/slog"
	"time"

	"github.com/you/babel-chat/internal/lang"
)

// Router dispatches each translation to the configured engine. Backend
// failures never escape: every failure path degrades to an empty string.
type Router struct {
	engine  string
	free    Backend
	paid    PairBackend
	timeout time.Duration
	onCall  func(engine, outcome string)
}

type RouterOptions struct {
	Engine  string // "google" | "deepl"
	Free    Backend
	Paid    PairBackend
	Timeout time.Duration
	// OnCall, when set, observes every backend call with an outcome of
	// "ok", "error" or "fallback" (metrics hook).
	OnCall func(engine, outcome string)
}

func NewRouter(opts RouterOptions) *Router {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Router{
		engine:  opts.Engine,
		free:    opts.Free,
		paid:    opts.Paid,
		timeout: timeout,
		onCall:  opts.OnCall,
	}
}

// Translate converts text from src to dest per the engine selection rules.
// An unknown engine is a configuration error: logged, empty result.
func (r *Router) Translate(ctx context.Context, text, src, dest string) string {
	switch r.engine {
	case "deepl":
		return r.translateDeepL(ctx, text, src, dest)
	case "google":
		return r.translateGoogle(ctx, text, dest)
	}
	slog.Error("translate: unknown engine configured", "engine", r.engine)
	r.observe(r.engine, "error")
	return ""
}

// translateDeepL uses the paid backend when both codes have DeepL mappings,
// and falls back to the free backend on a missing mapping or any backend
// failure. The free backend auto-detects, so only dest is forwarded.
func (r *Router) translateDeepL(ctx context.Context, text, src, dest string) string {
	srcMapped, srcOK := lang.DeepLCodes[src]
	destMapped, destOK := lang.DeepLCodes[dest]
	if !srcOK || !destOK || r.paid == nil {
		return r.translateGoogle(ctx, text, dest)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.paid.TranslatePair(callCtx, text, srcMapped, destMapped)
	if err != nil {
		slog.Debug("translate: deepl failed, falling back", "src", src, "dest", dest, "err", err)
		r.observe("deepl", "fallback")
		return r.translateGoogle(ctx, text, dest)
	}
	r.observe("deepl", "ok")
	return out
}

func (r *Router) translateGoogle(ctx context.Context, text, dest string) string {
	if r.free == nil {
		return ""
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.free.Translate(callCtx, text, dest)
	if err != nil {
		slog.Debug("translate: google failed", "dest", dest, "err", err)
		r.observe("google", "error")
		return ""
	}
	r.observe("google", "ok")
	return out
}

func (r *Router) observe(engine, outcome string) {
	if r.onCall != nil {
		r.onCall(engine, outcome)
	}
}
