package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/you/babel-chat/internal/config"
	"github.com/you/babel-chat/internal/core"
	httpadmin "github.com/you/babel-chat/internal/http"
	"github.com/you/babel-chat/internal/httpapi"
	"github.com/you/babel-chat/internal/pipeline"
	"github.com/you/babel-chat/internal/present"
	"github.com/you/babel-chat/internal/speech"
	"github.com/you/babel-chat/internal/translate"
	"github.com/you/babel-chat/internal/twitchchat"
	"github.com/you/babel-chat/internal/version"
	"github.com/you/babel-chat/internal/ytchat"
)

// multiPresenter fans one handled message out to every presenter.
type multiPresenter []pipeline.Presenter

func (m multiPresenter) Present(user string, reactions []core.Reaction) {
	for _, p := range m {
		p.Present(user, reactions)
	}
}

// platformCounts tracks messages seen per chat platform for /status.
type platformCounts struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newPlatformCounts() *platformCounts {
	return &platformCounts{counts: make(map[string]int64)}
}

func (p *platformCounts) inc(platform string) {
	p.mu.Lock()
	p.counts[platform]++
	p.mu.Unlock()
}

func (p *platformCounts) snapshot() map[string]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int64, len(p.counts))
	for k, v := range p.counts {
		out[k] = v
	}
	return out
}

// botControl is the admin surface over the running pipeline. It also holds
// the current configuration so /status can report a redacted snapshot.
type botControl struct {
	pipe   *pipeline.Pipeline
	worker *speech.Worker

	mu  sync.Mutex
	cfg config.Config
}

func (c *botControl) setConfig(cfg config.Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

func (c *botControl) configJSON() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.RedactedJSON()
}

func (c *botControl) StartTTS() { c.pipe.Start() }
func (c *botControl) StopTTS()  { c.pipe.Stop() }
func (c *botControl) ReloadConfig() error {
	cfg := config.Load()
	c.pipe.SetConfig(cfg)
	c.worker.Reconfigure(cfg.Speech.SpeakLangs, cfg.Langs.Default)
	c.setConfig(cfg)
	log.Printf("relaybot: configuration reloaded")
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		versionFlag bool
		debug       bool
		envFile     string
		twChannel   string
		twNick      string
		twToken     string
		twTokenFile string
		ytAPIKey    string
		ytChannel   string
		engine      string
		langHome    string
		langOther   string
		ttsIn       bool
		ttsOut      bool
		tmpDir      string
		playerCmd   string
		httpAddr    string
		watchEnv    bool
	)

	flag.BoolVar(&versionFlag, "version", false, "Print build version and exit")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&envFile, "env-file", "", "Path to the .env file (default .env)")
	flag.StringVar(&twChannel, "twitch-channel", "", "Twitch channel to join (without #)")
	flag.StringVar(&twNick, "twitch-nick", "", "Twitch nickname to login as")
	flag.StringVar(&twToken, "twitch-token", "", "Twitch OAuth token")
	flag.StringVar(&twTokenFile, "twitch-token-file", "", "Path to file containing the Twitch OAuth token")
	flag.StringVar(&ytAPIKey, "youtube-api-key", "", "YouTube Data API key")
	flag.StringVar(&ytChannel, "youtube-channel", "", "YouTube channel ID, @handle, or channel URL")
	flag.StringVar(&engine, "translator", "", "Translation engine: google or deepl")
	flag.StringVar(&langHome, "lang-home", "", "Home language code")
	flag.StringVar(&langOther, "lang-other", "", "Other language code")
	flag.BoolVar(&ttsIn, "tts-in", false, "Speak detected messages")
	flag.BoolVar(&ttsOut, "tts-out", false, "Speak translated messages")
	flag.StringVar(&tmpDir, "tmp-dir", "", "Directory for synthesized audio files")
	flag.StringVar(&playerCmd, "player", "", "Audio player command, file appended as last argument")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP status/feed address (e.g., :8765)")
	flag.BoolVar(&watchEnv, "watch-env", true, "Hot-reload configuration when the env file changes")
	flag.Parse()

	if versionFlag {
		fmt.Printf(
			"relaybot version: %s (commit %s, built %s)\n",
			version.Version,
			version.Commit,
			version.BuildTime,
		)
		os.Exit(0)
	}

	if debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if strings.TrimSpace(envFile) != "" {
		os.Setenv("BABEL_ENV_FILE", strings.TrimSpace(envFile))
	}

	overrides := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		overrides[f.Name] = true
	})

	cfg := config.Load()

	if overrides["twitch-channel"] {
		cfg.Twitch.Channel = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(twChannel)), "#")
		cfg.Twitch.Enabled = cfg.Twitch.Channel != ""
	}
	if overrides["twitch-nick"] {
		cfg.Twitch.Nick = strings.ToLower(strings.TrimSpace(twNick))
	}
	if overrides["twitch-token"] {
		cfg.Twitch.Token = strings.TrimSpace(twToken)
	}
	if overrides["twitch-token-file"] {
		cfg.Twitch.TokenFile = strings.TrimSpace(twTokenFile)
	}
	if overrides["youtube-api-key"] {
		cfg.YouTube.APIKey = strings.TrimSpace(ytAPIKey)
	}
	if overrides["youtube-channel"] {
		cfg.YouTube.Channel = strings.TrimSpace(ytChannel)
	}
	cfg.YouTube.Enabled = cfg.YouTube.APIKey != "" && cfg.YouTube.Channel != ""
	if overrides["translator"] {
		cfg.Translator.Engine = strings.ToLower(strings.TrimSpace(engine))
	}
	if overrides["lang-home"] {
		cfg.Langs.Home = strings.ToLower(strings.TrimSpace(langHome))
	}
	if overrides["lang-other"] {
		cfg.Langs.Other = strings.ToLower(strings.TrimSpace(langOther))
	}
	if overrides["tts-in"] {
		cfg.Speech.TTSIn = ttsIn
	}
	if overrides["tts-out"] {
		cfg.Speech.TTSOut = ttsOut
	}
	if overrides["tmp-dir"] {
		cfg.Speech.TmpDir = strings.TrimSpace(tmpDir)
	}
	if overrides["player"] {
		cfg.Speech.PlayerCommand = strings.TrimSpace(playerCmd)
	}
	if overrides["http-addr"] {
		cfg.HTTP.Addr = strings.TrimSpace(httpAddr)
	}

	fmt.Printf("relaybot %s\n", version.Version)
	fmt.Printf("channel    : #%s\n", cfg.Twitch.Channel)
	fmt.Printf("engine     : %s (translate.google.%s)\n", cfg.Translator.Engine, cfg.Translator.GoogleSuffix)
	fmt.Printf("languages  : home=%s other=%s\n", cfg.Langs.Home, cfg.Langs.Other)
	fmt.Printf("speech     : in=%t out=%t player=%q\n", cfg.Speech.TTSIn, cfg.Speech.TTSOut, cfg.Speech.PlayerCommand)
	log.Printf("%s", cfg.RedactedJSON())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("relaybot: received %s, shutting down", sig)
		cancel()
	}()

	if err := speech.RecreateTmpDir(cfg.Speech.TmpDir); err != nil {
		log.Fatalf("relaybot: tmp dir: %v", err)
	}

	queue := speech.NewQueue()
	player, err := speech.NewCommandPlayer(cfg.Speech.PlayerCommand)
	if err != nil {
		log.Fatalf("relaybot: player: %v", err)
	}

	var (
		pipe   *pipeline.Pipeline
		worker *speech.Worker
		api    *httpapi.Server
	)

	build := httpapi.BuildInfo{Version: version.Version, Revision: version.Commit}
	if version.BuildTime != "" && version.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, version.BuildTime); err == nil {
			build.BuiltAt = t
		}
	}

	counts := newPlatformCounts()
	control := &botControl{cfg: cfg}
	if cfg.HTTP.Addr != "" {
		api = httpapi.New(httpapi.Options{
			Addr:        cfg.HTTP.Addr,
			CORSOrigins: cfg.HTTP.CORSOrigins,
			RateRPS:     cfg.HTTP.RateRPS,
			RateBurst:   cfg.HTTP.RateBurst,
			Metrics:     cfg.HTTP.Metrics,
			AccessLog:   cfg.HTTP.AccessLog,
			Build:       build,
			Status: func() httpapi.Status {
				if pipe == nil {
					return httpapi.Status{}
				}
				return httpapi.Status{
					Stopped:       pipe.Stopped(),
					QueueDepth:    queue.Len(),
					AssignedUsers: pipe.AssignedCount(),
					Platforms:     counts.snapshot(),
					Config:        control.configJSON(),
				}
			},
			QueueDepth: func() float64 { return float64(queue.Len()) },
			Mount: func(mux *http.ServeMux) {
				httpadmin.New(control).Register(mux)
			},
		})
	}
	var metrics *httpapi.Metrics
	if api != nil {
		metrics = api.PipelineMetrics()
	}

	google := translate.NewGoogle(translate.GoogleOptions{
		Suffix:        cfg.Translator.GoogleSuffix,
		Timeout:       cfg.TranslateTimeout(),
		RatePerSecond: cfg.Translator.RatePerSecond,
	})
	var deepl translate.PairBackend
	if cfg.Translator.DeepLAuthKey != "" {
		deepl = translate.NewDeepL(translate.DeepLOptions{
			AuthKey: cfg.Translator.DeepLAuthKey,
			Timeout: cfg.TranslateTimeout(),
		})
	}
	router := translate.NewRouter(translate.RouterOptions{
		Engine:  cfg.Translator.Engine,
		Free:    google,
		Paid:    deepl,
		Timeout: cfg.TranslateTimeout(),
		OnCall:  metrics.ObserveTranslation,
	})

	synth := speech.NewGTTS(speech.GTTSOptions{TmpDir: cfg.Speech.TmpDir})
	worker = speech.NewWorker(queue, synth, player, speech.WorkerOptions{
		SpeakLangs:  cfg.Speech.SpeakLangs,
		DefaultLang: cfg.Langs.Default,
		OnTask:      metrics.ObserveSpeechTask,
	})
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("relaybot: speech worker exited: %v", err)
		}
	}()

	presenters := multiPresenter{present.NewConsole(os.Stdout)}
	if api != nil {
		presenters = append(presenters, api)
	}

	pipe = pipeline.New(pipeline.Options{
		Config:     cfg,
		Detector:   google,
		Translator: router,
		Presenter:  presenters,
		Speech:     queue,
		Player:     player,
		Events: pipeline.Events{
			OnMessage: func(platform string) {
				counts.inc(platform)
				metrics.ObserveMessage(platform)
			},
			OnDrop:     metrics.ObserveDrop,
			OnReaction: metrics.ObserveReaction,
		},
	})
	control.pipe, control.worker = pipe, worker

	if api != nil {
		go func() {
			if err := api.Start(); err != nil {
				log.Fatalf("relaybot: http api: %v", err)
			}
		}()
	}

	if watchEnv {
		watchPath := strings.TrimSpace(os.Getenv("BABEL_ENV_FILE"))
		if watchPath == "" {
			watchPath = ".env"
		}
		if _, err := os.Stat(watchPath); err == nil {
			err := config.Watch(watchPath, func(newCfg config.Config) {
				pipe.SetConfig(newCfg)
				worker.Reconfigure(newCfg.Speech.SpeakLangs, newCfg.Langs.Default)
				control.setConfig(newCfg)
				log.Printf("relaybot: configuration reloaded from %s", watchPath)
			})
			if err != nil {
				log.Printf("relaybot: env watch: %v", err)
			}
		}
	}

	started := 0

	if cfg.Twitch.Enabled {
		src, err := twitchchat.New(cfg.Twitch, pipe.Handle)
		if err != nil {
			log.Fatalf("relaybot: twitch: %v", err)
		}
		started++
		go func() {
			if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("relaybot: twitch source exited: %v", err)
				cancel()
			}
		}()
		log.Printf("relaybot: twitch source started for #%s", cfg.Twitch.Channel)
	}

	if cfg.YouTube.Enabled {
		src, err := ytchat.New(ctx, cfg.YouTube, pipe.Handle)
		if err != nil {
			log.Fatalf("relaybot: youtube: %v", err)
		}
		started++
		go func() {
			if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("relaybot: youtube source exited: %v", err)
				cancel()
			}
		}()
		log.Printf("relaybot: youtube source started for %s", cfg.YouTube.Channel)
	}

	if started == 0 {
		log.Printf("relaybot: ERROR: no chat sources configured. Set BABEL_TWITCH_CHANNEL or BABEL_YT_API_KEY + BABEL_YT_CHANNEL.")
	}

	<-ctx.Done()

	if api != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Printf("relaybot: http api shutdown: %v", err)
		}
		cancelShutdown()
	}
	player.Stop()

	// let source goroutines unwind
	time.Sleep(100 * time.Millisecond)
	log.Printf("relaybot: shutdown complete")
}
