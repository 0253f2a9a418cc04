package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/you/babel-chat/internal/config"
	"github.com/you/babel-chat/internal/lang"
)

// resolveLanguage decides the interpreted source language for one message.
// First match wins: sticky per-user map, sticky random assignment, the
// configured default when detection is skipped, then the detector. A
// detector failure yields "" and downstream comparisons treat "" as a
// language equal to no real code.
func (p *Pipeline) resolveLanguage(ctx context.Context, text, user string, cfg config.Config) string {
	if code, ok := cfg.Langs.UserLangMap[user]; ok {
		return code
	}

	if len(cfg.Langs.RandomLangPool) > 0 {
		p.mu.Lock()
		code, ok := p.assigned[user]
		if !ok {
			code = cfg.Langs.RandomLangPool[p.pick(len(cfg.Langs.RandomLangPool))]
			p.assigned[user] = code
		}
		p.mu.Unlock()
		return code
	}

	if cfg.Langs.SkipDetect {
		return cfg.Langs.Default
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	code, err := p.detector.Detect(callCtx, text)
	if err != nil {
		slog.Debug("pipeline: language detection failed", "user", user, "err", err)
		return ""
	}
	return code
}

// destination maps a detected language onto the configured pair: anything
// that is not the home language translates into home, home translates into
// other.
func destination(detected string, cfg config.Config) string {
	if detected != cfg.Langs.Home {
		return cfg.Langs.Home
	}
	return cfg.Langs.Other
}

// applyTag recognizes a "code: message" prefix. The prefix before the first
// colon must exactly match a known language code; the remainder keeps any
// further colons. Reports whether an override was applied.
func applyTag(text, defaultDest string) (string, string, bool) {
	idx := strings.Index(text, ":")
	if idx < 0 {
		return text, defaultDest, false
	}
	prefix := text[:idx]
	if !lang.Known(prefix) {
		return text, defaultDest, false
	}
	return strings.TrimSpace(text[idx+1:]), prefix, true
}
