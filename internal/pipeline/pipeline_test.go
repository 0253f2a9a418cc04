package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/you/babel-chat/internal/config"
	"github.com/you/babel-chat/internal/core"
)

type fakeDetector struct {
	lang  string
	err   error
	calls int
}

func (f *fakeDetector) Detect(context.Context, string) (string, error) {
	f.calls++
	return f.lang, f.err
}

type fakeTranslator struct {
	calls []string // "text|src|dest"
}

func (f *fakeTranslator) Translate(_ context.Context, text, src, dest string) string {
	f.calls = append(f.calls, text+"|"+src+"|"+dest)
	return "T:" + text
}

type fakePresenter struct {
	users     []string
	reactions [][]core.Reaction
}

func (f *fakePresenter) Present(user string, reactions []core.Reaction) {
	f.users = append(f.users, user)
	f.reactions = append(f.reactions, reactions)
}

type fakeSink struct {
	mu     sync.Mutex
	tasks  []core.SpeechTask
	clears int
}

func (f *fakeSink) Enqueue(task core.SpeechTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
}

func (f *fakeSink) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.tasks = nil
}

type fakeStopper struct{ stops int }

func (f *fakeStopper) Stop() { f.stops++ }

type env struct {
	p   *Pipeline
	det *fakeDetector
	tr  *fakeTranslator
	pr  *fakePresenter
	sk  *fakeSink
	pl  *fakeStopper
}

func newEnv(t *testing.T, cfg config.Config, pick func(int) int) *env {
	t.Helper()
	e := &env{
		det: &fakeDetector{lang: "en"},
		tr:  &fakeTranslator{},
		pr:  &fakePresenter{},
		sk:  &fakeSink{},
		pl:  &fakeStopper{},
	}
	e.p = New(Options{
		Config:     cfg,
		Detector:   e.det,
		Translator: e.tr,
		Presenter:  e.pr,
		Speech:     e.sk,
		Player:     e.pl,
		Events:     Events{},
		Pick:       pick,
	})
	return e
}

func baseConfig() config.Config {
	var cfg config.Config
	cfg.Langs.Home = "en"
	cfg.Langs.Other = "ru"
	cfg.Speech.TTSIn = true
	cfg.Speech.TTSOut = false
	return cfg
}

func msg(user, text string) core.ChatMessage {
	return core.ChatMessage{User: user, Platform: "twitch", Text: text}
}

func TestHandleDetectedAndTranslated(t *testing.T) {
	e := newEnv(t, baseConfig(), nil)
	e.p.Handle(context.Background(), msg("bob", "Hello there"))

	if len(e.pr.reactions) != 1 {
		t.Fatalf("expected one presented message, got %d", len(e.pr.reactions))
	}
	rs := e.pr.reactions[0]
	if len(rs) != 2 {
		t.Fatalf("expected 2 reactions, got %+v", rs)
	}
	if rs[0].Kind != core.ReactionDetected || rs[0].Lang != "en" || rs[0].Text != "Hello there" || !rs[0].Spoken {
		t.Fatalf("unexpected detected reaction: %+v", rs[0])
	}
	if rs[1].Kind != core.ReactionTranslated || rs[1].Lang != "ru" || rs[1].Text != "T:Hello there" || rs[1].Spoken {
		t.Fatalf("unexpected translated reaction: %+v", rs[1])
	}
	if len(e.sk.tasks) != 1 || e.sk.tasks[0].Lang != "en" {
		t.Fatalf("only the detected reaction should enqueue: %+v", e.sk.tasks)
	}
}

func TestHandleForeignLanguageTranslatesHome(t *testing.T) {
	e := newEnv(t, baseConfig(), nil)
	e.det.lang = "ja"
	e.p.Handle(context.Background(), msg("bob", "konnichiwa"))

	rs := e.pr.reactions[0]
	if rs[1].Lang != "en" {
		t.Fatalf("foreign input should translate into home: %+v", rs[1])
	}
	if e.tr.calls[0] != "konnichiwa|ja|en" {
		t.Fatalf("unexpected translator call: %v", e.tr.calls)
	}
}

func TestHandleEmptySanitizedDrops(t *testing.T) {
	cfg := baseConfig()
	cfg.Filter.DeleteWords = []string{"hi"}
	e := newEnv(t, cfg, nil)
	e.p.Handle(context.Background(), msg("bob", "hi hi  hi"))

	if len(e.pr.reactions) != 0 || len(e.sk.tasks) != 0 {
		t.Fatalf("empty sanitized text must produce nothing")
	}
}

func TestHandleIgnoredUser(t *testing.T) {
	cfg := baseConfig()
	cfg.Filter.IgnoreUsers = []string{"nightbot"}
	e := newEnv(t, cfg, nil)
	e.p.Handle(context.Background(), msg("NightBot", "buy followers"))

	if len(e.pr.reactions) != 0 {
		t.Fatalf("ignored user must be dropped")
	}
}

func TestHandleIgnoreLine(t *testing.T) {
	cfg := baseConfig()
	cfg.Filter.IgnoreLines = []string{"spam"}
	e := newEnv(t, cfg, nil)
	e.p.Handle(context.Background(), msg("bob", "this is spam here"))

	if len(e.pr.reactions) != 0 {
		t.Fatalf("ignore-line hit must be dropped")
	}
}

func TestHandleEchoDropped(t *testing.T) {
	e := newEnv(t, baseConfig(), nil)
	m := msg("relaybot", "T:hello")
	m.Echo = true
	e.p.Handle(context.Background(), m)

	if len(e.pr.reactions) != 0 {
		t.Fatalf("echoed message must be dropped")
	}
}

func TestStickyMapBeatsDetectorAndPool(t *testing.T) {
	cfg := baseConfig()
	cfg.Langs.UserLangMap = map[string]string{"alice": "fr"}
	cfg.Langs.RandomLangPool = []string{"de", "it"}
	e := newEnv(t, cfg, func(int) int { return 0 })
	e.det.lang = "ja"
	e.p.Handle(context.Background(), msg("Alice", "bonjour tout le monde"))

	if e.pr.reactions[0][0].Lang != "fr" {
		t.Fatalf("sticky map entry must win: %+v", e.pr.reactions[0][0])
	}
	if e.det.calls != 0 {
		t.Fatalf("detector must not run for sticky users")
	}
	if e.p.AssignedCount() != 0 {
		t.Fatalf("sticky map users must not consume a random assignment")
	}
}

func TestRandomAssignmentSticky(t *testing.T) {
	cfg := baseConfig()
	cfg.Langs.RandomLangPool = []string{"de", "it", "fr"}
	picks := []int{2, 0}
	e := newEnv(t, cfg, func(int) int {
		v := picks[0]
		picks = picks[1:]
		return v
	})

	e.p.Handle(context.Background(), msg("bob", "first message"))
	e.p.Handle(context.Background(), msg("bob", "second message"))

	if got := e.pr.reactions[0][0].Lang; got != "fr" {
		t.Fatalf("expected pool pick fr, got %q", got)
	}
	if got := e.pr.reactions[1][0].Lang; got != "fr" {
		t.Fatalf("assignment must be sticky, got %q", got)
	}
	if e.det.calls != 0 {
		t.Fatalf("detector must not run under random assignment")
	}
}

func TestSkipDetectReturnsDefault(t *testing.T) {
	cfg := baseConfig()
	cfg.Langs.SkipDetect = true
	cfg.Langs.Default = "de"
	e := newEnv(t, cfg, nil)
	e.p.Handle(context.Background(), msg("bob", "hallo"))

	if e.pr.reactions[0][0].Lang != "de" {
		t.Fatalf("skip-detect must use the default language")
	}
	if e.det.calls != 0 {
		t.Fatalf("detector must not run with skip-detect")
	}
}

func TestDetectorFailureStillTranslates(t *testing.T) {
	e := newEnv(t, baseConfig(), nil)
	e.det.lang = ""
	e.det.err = errors.New("boom")
	e.p.Handle(context.Background(), msg("bob", "mystery text"))

	rs := e.pr.reactions[0]
	if rs[0].Lang != "" {
		t.Fatalf("failed detection must surface as empty language")
	}
	// "" != home, so destination is home and translation is still attempted
	if len(rs) != 2 || rs[1].Lang != "en" {
		t.Fatalf("expected translated reaction into home: %+v", rs)
	}
	if e.tr.calls[0] != "mystery text||en" {
		t.Fatalf("unexpected translator call: %v", e.tr.calls)
	}
}

func TestHomeEqualsOtherSuppressesTranslation(t *testing.T) {
	cfg := baseConfig()
	cfg.Langs.Other = "en"
	e := newEnv(t, cfg, nil)
	e.p.Handle(context.Background(), msg("bob", "hello"))

	if len(e.pr.reactions[0]) != 1 {
		t.Fatalf("home==other with home input must yield only the detected reaction")
	}
	if len(e.tr.calls) != 0 {
		t.Fatalf("translator must not be called")
	}
}

func TestExplicitTagOverridesDestination(t *testing.T) {
	e := newEnv(t, baseConfig(), nil)
	e.p.Handle(context.Background(), msg("bob", "fr: bonjour"))

	rs := e.pr.reactions[0]
	if rs[0].Text != "bonjour" {
		t.Fatalf("tag prefix must be stripped: %+v", rs[0])
	}
	if rs[1].Lang != "fr" || rs[1].Text != "T:bonjour" {
		t.Fatalf("tag must force destination fr: %+v", rs[1])
	}
}

func TestExplicitTagKeepsLaterColons(t *testing.T) {
	e := newEnv(t, baseConfig(), nil)
	e.p.Handle(context.Background(), msg("bob", "fr: time: 12:30"))

	if got := e.pr.reactions[0][0].Text; got != "time: 12:30" {
		t.Fatalf("only the first colon splits: %q", got)
	}
}

func TestUnknownTagPassesThrough(t *testing.T) {
	e := newEnv(t, baseConfig(), nil)
	e.det.lang = "ja"
	e.p.Handle(context.Background(), msg("bob", "notalang: hi"))

	rs := e.pr.reactions[0]
	if rs[0].Text != "notalang: hi" {
		t.Fatalf("unknown prefix must keep text unchanged: %+v", rs[0])
	}
	if rs[1].Lang != "en" {
		t.Fatalf("unknown prefix must keep the default destination: %+v", rs[1])
	}
}

func TestExplicitTagBypassesIgnoreLangs(t *testing.T) {
	cfg := baseConfig()
	cfg.Filter.IgnoreLangs = []string{"ja"}
	e := newEnv(t, cfg, nil)
	e.det.lang = "ja"
	e.p.Handle(context.Background(), msg("bob", "ja: こんにちは"))

	if len(e.pr.reactions) != 1 {
		t.Fatalf("explicit tag must bypass the ignore-language list")
	}
	rs := e.pr.reactions[0]
	// detected == tagged destination, so only the detected reaction remains
	if len(rs) != 1 || rs[0].Text != "こんにちは" || rs[0].Lang != "ja" {
		t.Fatalf("unexpected reactions: %+v", rs)
	}
}

func TestIgnoredLanguageDropsWithoutTag(t *testing.T) {
	cfg := baseConfig()
	cfg.Filter.IgnoreLangs = []string{"ja"}
	e := newEnv(t, cfg, nil)
	e.det.lang = "ja"
	e.p.Handle(context.Background(), msg("bob", "notalang: こんにちは"))

	if len(e.pr.reactions) != 0 {
		t.Fatalf("ignored language without an override must drop")
	}
}

func TestCommandsControlStopped(t *testing.T) {
	e := newEnv(t, baseConfig(), nil)
	ctx := context.Background()

	e.sk.Enqueue(core.SpeechTask{Text: "pending", Lang: "en"})
	e.p.Handle(ctx, msg("bob", "!tts stop"))
	if !e.p.Stopped() {
		t.Fatalf("stop command must set the stopped flag")
	}
	if e.sk.clears != 1 {
		t.Fatalf("stop must clear the speech queue")
	}
	if e.pl.stops != 1 {
		t.Fatalf("stop must halt playback")
	}

	e.p.Handle(ctx, msg("bob", "hello while stopped"))
	if len(e.pr.reactions) != 0 {
		t.Fatalf("messages while stopped must drop")
	}

	e.p.Handle(ctx, msg("bob", "!tts start"))
	if e.p.Stopped() {
		t.Fatalf("start command must clear the stopped flag")
	}
	e.p.Handle(ctx, msg("bob", "hello again"))
	if len(e.pr.reactions) != 1 {
		t.Fatalf("processing must resume after start")
	}
}

func TestCommandsNeverPresented(t *testing.T) {
	e := newEnv(t, baseConfig(), nil)
	e.p.Handle(context.Background(), msg("bob", "!somebot command"))
	if len(e.pr.reactions) != 0 {
		t.Fatalf("command-prefixed messages are consumed, not chat")
	}
}

func TestReloadKeepsAssignments(t *testing.T) {
	cfg := baseConfig()
	cfg.Langs.RandomLangPool = []string{"de"}
	e := newEnv(t, cfg, func(int) int { return 0 })
	e.p.Handle(context.Background(), msg("bob", "hello"))
	if e.p.AssignedCount() != 1 {
		t.Fatalf("expected one sticky assignment")
	}

	e.p.SetConfig(cfg)
	e.p.Handle(context.Background(), msg("bob", "again"))
	if e.p.AssignedCount() != 1 {
		t.Fatalf("reload must not reset sticky assignments")
	}
}

func TestEventsObserveDrops(t *testing.T) {
	cfg := baseConfig()
	cfg.Filter.IgnoreUsers = []string{"nightbot"}
	var drops []string
	e := &env{det: &fakeDetector{lang: "en"}, tr: &fakeTranslator{}, pr: &fakePresenter{}, sk: &fakeSink{}, pl: &fakeStopper{}}
	e.p = New(Options{
		Config:     cfg,
		Detector:   e.det,
		Translator: e.tr,
		Presenter:  e.pr,
		Speech:     e.sk,
		Player:     e.pl,
		Events: Events{
			OnDrop: func(platform, reason string) { drops = append(drops, platform+"/"+reason) },
		},
	})

	e.p.Handle(context.Background(), msg("nightbot", "hi"))
	if len(drops) != 1 || drops[0] != "twitch/ignored_user" {
		t.Fatalf("unexpected drop events: %v", drops)
	}
}
