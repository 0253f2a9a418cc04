package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/you/babel-chat/internal/lang"
)

type Config struct {
	Twitch     TwitchConfig
	YouTube    YouTubeConfig
	Filter     FilterConfig
	Langs      LangConfig
	Translator TranslatorConfig
	Speech     SpeechConfig
	HTTP       HTTPConfig
}

type TwitchConfig struct {
	Enabled   bool
	Channel   string
	Nick      string
	Token     string
	TokenFile string
	TLS       bool
	Announce  bool
}

type YouTubeConfig struct {
	Enabled        bool
	APIKey         string
	Channel        string // channel ID, @handle, or channel URL
	RetrySeconds   int    // not-live re-check interval
	PollIntervalMS int    // floor for the live chat poll interval
}

type FilterConfig struct {
	IgnoreUsers     []string
	IgnoreLines     []string
	IgnoreLangs     []string
	DeleteWords     []string
	IgnoreLinks     bool
	ReplaceLinks    bool
	LinkReplacement string
	IgnoreEmoji     bool
}

type LangConfig struct {
	Home           string
	Other          string
	Default        string
	SkipDetect     bool
	UserLangMap    map[string]string
	RandomLangPool []string
}

type TranslatorConfig struct {
	Engine        string // "google" | "deepl"
	GoogleSuffix  string
	DeepLAuthKey  string
	TimeoutSecs   int
	RatePerSecond float64
}

type SpeechConfig struct {
	TTSIn         bool
	TTSOut        bool
	SpeakLangs    []string
	TmpDir        string
	PlayerCommand string
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
	RateRPS     int
	RateBurst   int
	Metrics     bool
	AccessLog   bool
}

const (
	defaultRetrySeconds   = 60
	defaultPollIntervalMS = 1500
	defaultTmpDir         = "./tmp"
	defaultPlayerCommand  = "mpv --really-quiet"
	defaultTimeoutSecs    = 15
	defaultRatePerSecond  = 2.0
	defaultHTTPRateRPS    = 20
	defaultHTTPRateBurst  = 40
)

// Load builds the configuration from the environment. A .env file named by
// BABEL_ENV_FILE (default ".env", missing file tolerated) is merged first
// without overriding already-exported variables.
func Load() Config {
	envFile := strings.TrimSpace(os.Getenv("BABEL_ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("config: env file %s: %v", envFile, err)
	}

	cfg := Config{}

	channel := strings.ToLower(strings.TrimSpace(os.Getenv("BABEL_TWITCH_CHANNEL")))
	channel = strings.TrimPrefix(channel, "#")
	cfg.Twitch.Channel = channel
	cfg.Twitch.Nick = strings.ToLower(strings.TrimSpace(os.Getenv("BABEL_TWITCH_NICK")))
	cfg.Twitch.Token = strings.TrimSpace(os.Getenv("BABEL_TWITCH_TOKEN"))
	cfg.Twitch.TokenFile = strings.TrimSpace(os.Getenv("BABEL_TWITCH_TOKEN_FILE"))
	cfg.Twitch.TLS = readBool("BABEL_TWITCH_TLS", true)
	cfg.Twitch.Announce = readBool("BABEL_TWITCH_ANNOUNCE", false)
	cfg.Twitch.Enabled = cfg.Twitch.Channel != ""

	cfg.YouTube.APIKey = strings.TrimSpace(os.Getenv("BABEL_YT_API_KEY"))
	cfg.YouTube.Channel = strings.TrimSpace(os.Getenv("BABEL_YT_CHANNEL"))
	cfg.YouTube.RetrySeconds = readInt("BABEL_YT_RETRY_SECS", defaultRetrySeconds)
	cfg.YouTube.PollIntervalMS = readInt("BABEL_YT_POLL_INTERVAL_MS", defaultPollIntervalMS)
	cfg.YouTube.Enabled = cfg.YouTube.APIKey != "" && cfg.YouTube.Channel != ""

	cfg.Filter.IgnoreUsers = lowerAll(splitList(os.Getenv("BABEL_IGNORE_USERS")))
	cfg.Filter.IgnoreLines = splitList(os.Getenv("BABEL_IGNORE_LINES"))
	cfg.Filter.IgnoreLangs = splitList(os.Getenv("BABEL_IGNORE_LANGS"))
	cfg.Filter.DeleteWords = splitList(os.Getenv("BABEL_DELETE_WORDS"))
	cfg.Filter.IgnoreLinks = readBool("BABEL_IGNORE_LINKS", false)
	if raw, ok := os.LookupEnv("BABEL_LINK_REPLACEMENT"); ok {
		// an exported empty value is a valid replacement
		cfg.Filter.ReplaceLinks = true
		cfg.Filter.LinkReplacement = raw
	}
	cfg.Filter.IgnoreEmoji = readBool("BABEL_IGNORE_EMOJI", false)

	cfg.Langs.Home = langOrDefault("BABEL_LANG_HOME", "en")
	cfg.Langs.Other = langOrDefault("BABEL_LANG_OTHER", "en")
	cfg.Langs.Default = strings.TrimSpace(os.Getenv("BABEL_LANG_DEFAULT"))
	cfg.Langs.SkipDetect = readBool("BABEL_LANG_SKIP_DETECT", false)
	cfg.Langs.UserLangMap = parseUserLangMap(os.Getenv("BABEL_USER_LANG_MAP"))
	cfg.Langs.RandomLangPool = parseRandomPool(os.Getenv("BABEL_RANDOM_LANG_POOL"))

	engine := strings.ToLower(strings.TrimSpace(os.Getenv("BABEL_TRANSLATOR")))
	if engine == "" {
		engine = "google"
	}
	cfg.Translator.Engine = engine
	cfg.Translator.GoogleSuffix = lang.NormalizeServiceSuffix(strings.TrimSpace(os.Getenv("BABEL_GOOGLE_SUFFIX")))
	cfg.Translator.DeepLAuthKey = strings.TrimSpace(os.Getenv("BABEL_DEEPL_AUTH_KEY"))
	cfg.Translator.TimeoutSecs = readInt("BABEL_TRANSLATE_TIMEOUT_SECS", defaultTimeoutSecs)
	cfg.Translator.RatePerSecond = readFloat("BABEL_TRANSLATE_RATE_PER_SEC", defaultRatePerSecond)

	cfg.Speech.TTSIn = readBool("BABEL_TTS_IN", false)
	cfg.Speech.TTSOut = readBool("BABEL_TTS_OUT", false)
	cfg.Speech.SpeakLangs = splitList(os.Getenv("BABEL_SPEAK_LANGS"))
	cfg.Speech.TmpDir = strings.TrimSpace(os.Getenv("BABEL_TMP_DIR"))
	if cfg.Speech.TmpDir == "" {
		cfg.Speech.TmpDir = defaultTmpDir
	}
	cfg.Speech.PlayerCommand = strings.TrimSpace(os.Getenv("BABEL_PLAYER_COMMAND"))
	if cfg.Speech.PlayerCommand == "" {
		cfg.Speech.PlayerCommand = defaultPlayerCommand
	}

	cfg.HTTP.Addr = strings.TrimSpace(os.Getenv("BABEL_HTTP_ADDR"))
	cfg.HTTP.CORSOrigins = splitList(os.Getenv("BABEL_HTTP_CORS_ORIGINS"))
	cfg.HTTP.RateRPS = readInt("BABEL_HTTP_RATE_RPS", defaultHTTPRateRPS)
	cfg.HTTP.RateBurst = readInt("BABEL_HTTP_RATE_BURST", defaultHTTPRateBurst)
	cfg.HTTP.Metrics = readBool("BABEL_HTTP_METRICS", true)
	cfg.HTTP.AccessLog = readBool("BABEL_HTTP_ACCESS_LOG", true)

	return cfg
}

// langOrDefault reads a language code, warning (but keeping the value)
// when it is not a known code. The pipeline tolerates an unknown pair by
// degrading to home==other semantics, so this is advisory only.
func langOrDefault(name, def string) string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if raw == "" {
		return def
	}
	if !lang.Known(raw) {
		log.Printf("config: %s=%q is not a known language code", name, raw)
	}
	return raw
}

// parseUserLangMap parses "user=lang,user2=lang2" with lowercase keys.
func parseUserLangMap(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range splitList(raw) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		user := strings.ToLower(strings.TrimSpace(parts[0]))
		code := strings.TrimSpace(parts[1])
		if user == "" || code == "" {
			continue
		}
		out[user] = code
	}
	return out
}

// parseRandomPool parses the random-assignment pool; the literal "all"
// expands to every known language code.
func parseRandomPool(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.EqualFold(raw, "all") {
		return lang.Codes()
	}
	return splitList(raw)
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}

func readInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func readFloat(name string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func readBool(name string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func (c Config) TranslateTimeout() time.Duration {
	if c.Translator.TimeoutSecs <= 0 {
		return defaultTimeoutSecs * time.Second
	}
	return time.Duration(c.Translator.TimeoutSecs) * time.Second
}

func (c Config) YouTubeRetryDelay() time.Duration {
	secs := c.YouTube.RetrySeconds
	if secs <= 0 {
		secs = defaultRetrySeconds
	}
	return time.Duration(secs) * time.Second
}

// Redacted returns a loggable snapshot with secrets masked.
func (c Config) Redacted() map[string]any {
	return map[string]any{
		"twitch": map[string]any{
			"enabled":    c.Twitch.Enabled,
			"channel":    c.Twitch.Channel,
			"nick":       c.Twitch.Nick,
			"token":      redactString(c.Twitch.Token),
			"token_file": c.Twitch.TokenFile,
			"tls":        c.Twitch.TLS,
		},
		"youtube": map[string]any{
			"enabled":    c.YouTube.Enabled,
			"channel":    c.YouTube.Channel,
			"api_key":    redactString(c.YouTube.APIKey),
			"retry_secs": c.YouTube.RetrySeconds,
		},
		"filter": map[string]any{
			"ignore_users": len(c.Filter.IgnoreUsers),
			"ignore_lines": len(c.Filter.IgnoreLines),
			"ignore_langs": append([]string(nil), c.Filter.IgnoreLangs...),
			"delete_words": len(c.Filter.DeleteWords),
			"ignore_links": c.Filter.IgnoreLinks,
			"ignore_emoji": c.Filter.IgnoreEmoji,
		},
		"langs": map[string]any{
			"home":        c.Langs.Home,
			"other":       c.Langs.Other,
			"default":     c.Langs.Default,
			"skip_detect": c.Langs.SkipDetect,
			"sticky_map":  len(c.Langs.UserLangMap),
			"random_pool": len(c.Langs.RandomLangPool),
		},
		"translator": map[string]any{
			"engine":    c.Translator.Engine,
			"suffix":    c.Translator.GoogleSuffix,
			"deepl_key": redactString(c.Translator.DeepLAuthKey),
		},
		"speech": map[string]any{
			"tts_in":      c.Speech.TTSIn,
			"tts_out":     c.Speech.TTSOut,
			"speak_langs": append([]string(nil), c.Speech.SpeakLangs...),
			"tmp_dir":     c.Speech.TmpDir,
			"player":      c.Speech.PlayerCommand,
		},
		"http": map[string]any{
			"addr":    c.HTTP.Addr,
			"metrics": c.HTTP.Metrics,
		},
	}
}

func (c Config) RedactedJSON() []byte {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return data
}

func redactString(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return "***REDACTED*** (len=" + strconv.Itoa(len(value)) + ")"
}
