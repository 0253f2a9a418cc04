// Package pipeline turns inbound chat messages into reactions: a detected
// line and, when the language pair calls for it, a translated one, each
// optionally queued for speech.
package pipeline

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/you/babel-chat/internal/config"
	"github.com/you/babel-chat/internal/core"
	"github.com/you/babel-chat/internal/sanitize"
)

// Detector guesses the language of a text, "" meaning unknown.
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// Translator converts text between languages. Failures surface as an empty
// result, never as an error.
type Translator interface {
	Translate(ctx context.Context, text, src, dest string) string
}

// Presenter receives the reactions built for one message, display only.
type Presenter interface {
	Present(user string, reactions []core.Reaction)
}

// SpeechSink accepts tasks for the speech worker and supports a best-effort
// clear when speaking is stopped.
type SpeechSink interface {
	Enqueue(task core.SpeechTask)
	Clear()
}

// Player is the part of the audio player the pipeline needs: halting
// whatever is currently audible.
type Player interface {
	Stop()
}

// Events are optional observation hooks, wired to metrics in the binary.
type Events struct {
	OnMessage  func(platform string)
	OnDrop     func(platform, reason string)
	OnReaction func(kind string)
}

func (e Events) message(platform string) {
	if e.OnMessage != nil {
		e.OnMessage(platform)
	}
}

func (e Events) drop(platform, reason string) {
	if e.OnDrop != nil {
		e.OnDrop(platform, reason)
	}
}

func (e Events) reaction(kind string) {
	if e.OnReaction != nil {
		e.OnReaction(kind)
	}
}

// Pipeline holds the per-process session state: the stopped flag, the
// sticky random language assignments and the active config snapshot. All of
// it sits behind one mutex so concurrent chat transports can share a single
// instance.
type Pipeline struct {
	detector  Detector
	translate Translator
	present   Presenter
	speech    SpeechSink
	player    Player
	events    Events
	timeout   time.Duration
	pick      func(n int) int

	mu        sync.Mutex
	cfg       config.Config
	sanitizer *sanitize.Sanitizer
	stopped   bool
	assigned  map[string]string
}

type Options struct {
	Config     config.Config
	Detector   Detector
	Translator Translator
	Presenter  Presenter
	Speech     SpeechSink
	Player     Player
	Events     Events
	// Pick overrides the random-pool index choice, tests only.
	Pick func(n int) int
}

func New(opts Options) *Pipeline {
	pick := opts.Pick
	if pick == nil {
		pick = rand.Intn
	}
	p := &Pipeline{
		detector:  opts.Detector,
		translate: opts.Translator,
		present:   opts.Presenter,
		speech:    opts.Speech,
		player:    opts.Player,
		events:    opts.Events,
		timeout:   opts.Config.TranslateTimeout(),
		pick:      pick,
		assigned:  make(map[string]string),
	}
	p.SetConfig(opts.Config)
	return p
}

// SetConfig swaps the active configuration snapshot, rebuilding the
// sanitizer. Sticky random assignments survive a reload.
func (p *Pipeline) SetConfig(cfg config.Config) {
	s := sanitize.New(sanitize.Options{
		DeleteWords:     cfg.Filter.DeleteWords,
		IgnoreLinks:     cfg.Filter.IgnoreLinks,
		ReplaceLinks:    cfg.Filter.ReplaceLinks,
		LinkReplacement: cfg.Filter.LinkReplacement,
		IgnoreEmoji:     cfg.Filter.IgnoreEmoji,
	})
	p.mu.Lock()
	p.cfg = cfg
	p.sanitizer = s
	p.mu.Unlock()
}

// Stopped reports whether speaking and message processing are halted.
func (p *Pipeline) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Start resumes processing after a stop.
func (p *Pipeline) Start() {
	p.mu.Lock()
	p.stopped = false
	p.mu.Unlock()
}

// Stop halts processing: new messages drop, pending speech tasks are
// cleared and in-flight audio is cut off.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	if p.speech != nil {
		p.speech.Clear()
	}
	if p.player != nil {
		p.player.Stop()
	}
}

// AssignedCount reports how many users hold a sticky random assignment.
func (p *Pipeline) AssignedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.assigned)
}

func (p *Pipeline) snapshot() (config.Config, *sanitize.Sanitizer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg, p.sanitizer, p.stopped
}

// Handle runs one message through the full state machine. It never returns
// an error: every failure path degrades to dropping the message or a
// reaction, and commands are consumed here rather than treated as chat.
func (p *Pipeline) Handle(ctx context.Context, msg core.ChatMessage) {
	p.events.message(msg.Platform)

	user := strings.ToLower(msg.User)
	trace := newTrace(msg.Platform, user, msg.Text)

	cfg, sanitizer, stopped := p.snapshot()

	if strings.HasPrefix(msg.Text, "!") {
		p.runCommand(msg.Text)
		p.drop(trace, msg.Platform, "command")
		return
	}
	if stopped {
		p.drop(trace, msg.Platform, "stopped")
		return
	}
	if msg.Echo {
		p.drop(trace, msg.Platform, "echo")
		return
	}
	for _, ignored := range cfg.Filter.IgnoreUsers {
		if user == ignored {
			p.drop(trace, msg.Platform, "ignored_user")
			return
		}
	}
	for _, line := range cfg.Filter.IgnoreLines {
		if strings.Contains(msg.Text, line) {
			p.drop(trace, msg.Platform, "ignore_line")
			return
		}
	}

	text := sanitizer.Sanitize(msg.Text, msg.Emotes)
	if text == "" {
		p.drop(trace, msg.Platform, "empty")
		return
	}
	trace.mark(stageSanitized)

	langDetect := p.resolveLanguage(ctx, text, user, cfg)
	langDest := destination(langDetect, cfg)

	text, langDest, overridden := applyTag(text, langDest)
	if !overridden {
		for _, ignored := range cfg.Filter.IgnoreLangs {
			if langDetect == ignored {
				p.drop(trace, msg.Platform, "ignored_lang")
				return
			}
		}
	}

	reactions := []core.Reaction{{
		Kind:   core.ReactionDetected,
		Spoken: cfg.Speech.TTSIn,
		Lang:   langDetect,
		Text:   text,
	}}
	if langDetect != langDest {
		reactions = append(reactions, core.Reaction{
			Kind:   core.ReactionTranslated,
			Spoken: cfg.Speech.TTSOut,
			Lang:   langDest,
			Text:   p.translate.Translate(ctx, text, langDetect, langDest),
		})
	}
	trace.mark(stageReactionsBuilt)

	for _, r := range reactions {
		p.events.reaction(string(r.Kind))
		if r.Spoken && p.speech != nil {
			p.speech.Enqueue(core.SpeechTask{Text: r.Text, Lang: r.Lang})
			trace.mark(stageSpoken)
		}
	}
	if p.present != nil {
		p.present.Present(msg.User, reactions)
	}
	trace.log("message handled")
}

func (p *Pipeline) drop(trace *messageTrace, platform, reason string) {
	trace.mark(stageDropped(reason))
	trace.log("message dropped")
	p.events.drop(platform, reason)
}

// runCommand consumes "!"-prefixed control messages. Unrecognized commands
// are swallowed without effect.
func (p *Pipeline) runCommand(text string) {
	switch strings.TrimSpace(text) {
	case "!tts start":
		p.Start()
	case "!tts stop":
		p.Stop()
	}
}
