package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"BABEL_ENV_FILE", "BABEL_TWITCH_CHANNEL", "BABEL_TWITCH_NICK",
		"BABEL_TWITCH_TOKEN", "BABEL_TWITCH_TOKEN_FILE", "BABEL_TWITCH_TLS",
		"BABEL_YT_API_KEY", "BABEL_YT_CHANNEL", "BABEL_YT_RETRY_SECS",
		"BABEL_IGNORE_USERS", "BABEL_IGNORE_LINES", "BABEL_IGNORE_LANGS",
		"BABEL_DELETE_WORDS", "BABEL_IGNORE_LINKS", "BABEL_IGNORE_EMOJI",
		"BABEL_LANG_HOME", "BABEL_LANG_OTHER", "BABEL_LANG_DEFAULT",
		"BABEL_LANG_SKIP_DETECT", "BABEL_USER_LANG_MAP", "BABEL_RANDOM_LANG_POOL",
		"BABEL_TRANSLATOR", "BABEL_GOOGLE_SUFFIX", "BABEL_DEEPL_AUTH_KEY",
		"BABEL_TTS_IN", "BABEL_TTS_OUT", "BABEL_SPEAK_LANGS", "BABEL_TMP_DIR",
		"BABEL_PLAYER_COMMAND", "BABEL_HTTP_ADDR",
	} {
		t.Setenv(name, "")
	}
	// empty BABEL_LINK_REPLACEMENT still counts as "set"; drop it outright
	t.Setenv("BABEL_ENV_FILE", "/nonexistent/.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.Twitch.Enabled {
		t.Fatalf("expected twitch disabled without channel")
	}
	if !cfg.Twitch.TLS {
		t.Fatalf("expected TLS default true")
	}
	if cfg.Langs.Home != "en" || cfg.Langs.Other != "en" {
		t.Fatalf("expected en/en language defaults, got %s/%s", cfg.Langs.Home, cfg.Langs.Other)
	}
	if cfg.Translator.Engine != "google" {
		t.Fatalf("expected google engine default, got %q", cfg.Translator.Engine)
	}
	if cfg.Translator.GoogleSuffix != "co.jp" {
		t.Fatalf("expected co.jp suffix default, got %q", cfg.Translator.GoogleSuffix)
	}
	if cfg.Speech.TmpDir != "./tmp" {
		t.Fatalf("unexpected tmp dir: %q", cfg.Speech.TmpDir)
	}
	if cfg.YouTubeRetryDelay() != 60*time.Second {
		t.Fatalf("unexpected retry delay: %s", cfg.YouTubeRetryDelay())
	}
	if cfg.Filter.ReplaceLinks {
		t.Fatalf("link replacement should be unset by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BABEL_TWITCH_CHANNEL", "#SomeChannel")
	t.Setenv("BABEL_TWITCH_NICK", "BabelBot")
	t.Setenv("BABEL_TWITCH_TOKEN", "oauth:abc")
	t.Setenv("BABEL_IGNORE_USERS", "Nightbot, StreamElements")
	t.Setenv("BABEL_DELETE_WORDS", "[bot], xd")
	t.Setenv("BABEL_LANG_HOME", "en")
	t.Setenv("BABEL_LANG_OTHER", "ru")
	t.Setenv("BABEL_USER_LANG_MAP", "Alice=ja, bob=fr")
	t.Setenv("BABEL_LINK_REPLACEMENT", "")
	t.Setenv("BABEL_GOOGLE_SUFFIX", "not-a-domain")

	cfg := Load()
	if cfg.Twitch.Channel != "somechannel" {
		t.Fatalf("expected lowercased channel without #, got %q", cfg.Twitch.Channel)
	}
	if !cfg.Twitch.Enabled {
		t.Fatalf("expected twitch enabled")
	}
	if cfg.Twitch.Nick != "babelbot" {
		t.Fatalf("unexpected nick: %q", cfg.Twitch.Nick)
	}
	if len(cfg.Filter.IgnoreUsers) != 2 || cfg.Filter.IgnoreUsers[0] != "nightbot" {
		t.Fatalf("unexpected ignore users: %v", cfg.Filter.IgnoreUsers)
	}
	if len(cfg.Filter.DeleteWords) != 2 || cfg.Filter.DeleteWords[0] != "[bot]" {
		t.Fatalf("unexpected delete words: %v", cfg.Filter.DeleteWords)
	}
	if cfg.Langs.Other != "ru" {
		t.Fatalf("unexpected other lang: %q", cfg.Langs.Other)
	}
	if got := cfg.Langs.UserLangMap["alice"]; got != "ja" {
		t.Fatalf("expected lowercased sticky map key, got map %v", cfg.Langs.UserLangMap)
	}
	if !cfg.Filter.ReplaceLinks || cfg.Filter.LinkReplacement != "" {
		t.Fatalf("expected empty link replacement to be honored")
	}
	if cfg.Translator.GoogleSuffix != "co.jp" {
		t.Fatalf("expected invalid suffix to fall back, got %q", cfg.Translator.GoogleSuffix)
	}
}

func TestRandomPoolAll(t *testing.T) {
	clearEnv(t)
	t.Setenv("BABEL_RANDOM_LANG_POOL", "all")

	cfg := Load()
	if len(cfg.Langs.RandomLangPool) < 100 {
		t.Fatalf("expected full language set, got %d entries", len(cfg.Langs.RandomLangPool))
	}
	found := false
	for _, code := range cfg.Langs.RandomLangPool {
		if code == "ja" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ja in expanded pool")
	}
}

func TestRandomPoolExplicit(t *testing.T) {
	clearEnv(t)
	t.Setenv("BABEL_RANDOM_LANG_POOL", "en, fr, ja")

	cfg := Load()
	if len(cfg.Langs.RandomLangPool) != 3 {
		t.Fatalf("unexpected pool: %v", cfg.Langs.RandomLangPool)
	}
}

func TestRedactedSnapshot(t *testing.T) {
	clearEnv(t)
	t.Setenv("BABEL_TWITCH_CHANNEL", "chan")
	t.Setenv("BABEL_TWITCH_TOKEN", "oauth:secret12")

	cfg := Load()
	redacted := cfg.Redacted()
	tw := redacted["twitch"].(map[string]any)
	tok := tw["token"].(string)
	if !strings.HasPrefix(tok, "***REDACTED***") {
		t.Fatalf("expected redacted token, got %q", tok)
	}
	if strings.Contains(string(cfg.RedactedJSON()), "secret12") {
		t.Fatalf("redacted JSON leaks the token")
	}
}
