package speech

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/you/babel-chat/internal/core"
)

// ErrUnsupportedLanguage is returned by a Synthesizer when the backend
// cannot speak the requested language.
var ErrUnsupportedLanguage = errors.New("speech: language not supported")

// Synthesizer renders text in lang to an audio file and returns its path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (string, error)
}

// Player plays an audio file, blocking until the audio finishes. Stop halts
// any in-flight playback immediately.
type Player interface {
	Play(ctx context.Context, file string) error
	Stop()
}

// Worker drains the queue serially: allowlist check, synthesize, play,
// remove the temp file. The audio device is a single exclusive resource, so
// there is never more than one playback in flight.
type Worker struct {
	queue *Queue
	synth Synthesizer
	play  Player

	mu          sync.Mutex
	speakLangs  map[string]struct{}
	defaultLang string

	onTask func(outcome string)
}

type WorkerOptions struct {
	SpeakLangs  []string // allowlist; empty means every language is spoken
	DefaultLang string   // retry language for unsupported synthesis
	// OnTask, when set, observes each task with an outcome of "ok",
	// "skipped", "synth_error" or "play_error" (metrics hook).
	OnTask func(outcome string)
}

func NewWorker(queue *Queue, synth Synthesizer, play Player, opts WorkerOptions) *Worker {
	w := &Worker{
		queue:  queue,
		synth:  synth,
		play:   play,
		onTask: opts.OnTask,
	}
	w.Reconfigure(opts.SpeakLangs, opts.DefaultLang)
	return w
}

// Reconfigure swaps the allowlist and default language (config reload).
func (w *Worker) Reconfigure(speakLangs []string, defaultLang string) {
	set := make(map[string]struct{}, len(speakLangs))
	for _, code := range speakLangs {
		set[code] = struct{}{}
	}
	w.mu.Lock()
	w.speakLangs = set
	w.defaultLang = defaultLang
	w.mu.Unlock()
}

// Run consumes tasks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		task, err := w.queue.Next(ctx)
		if err != nil {
			return err
		}
		w.process(ctx, task.Text, task.Lang)
	}
}

func (w *Worker) process(ctx context.Context, text, lang string) {
	w.mu.Lock()
	allowed := len(w.speakLangs) == 0
	if !allowed {
		_, allowed = w.speakLangs[lang]
	}
	defaultLang := w.defaultLang
	w.mu.Unlock()

	if !allowed {
		slog.Debug("speech: language not in allowlist", "lang", lang)
		w.observe("skipped")
		return
	}

	file, err := w.synth.Synthesize(ctx, text, lang)
	if err != nil {
		if errors.Is(err, ErrUnsupportedLanguage) && defaultLang != "" && defaultLang != lang {
			// one retry with the configured default language
			w.queue.Enqueue(core.SpeechTask{Text: text, Lang: defaultLang})
		}
		slog.Debug("speech: synthesis failed", "lang", lang, "err", err)
		w.observe("synth_error")
		return
	}

	if err := w.play.Play(ctx, file); err != nil {
		slog.Debug("speech: playback failed", "file", file, "err", err)
		w.observe("play_error")
	} else {
		w.observe("ok")
	}

	if err := os.Remove(file); err != nil {
		// best-effort cleanup; a leaked temp file is not fatal
		slog.Debug("speech: remove temp file", "file", file, "err", err)
	}
}

func (w *Worker) observe(outcome string) {
	if w.onTask != nil {
		w.onTask(outcome)
	}
}
