package speech

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// CommandPlayer shells out to an external audio player (mpv, ffplay, ...)
// and blocks until the process exits. Stop kills the in-flight process.
type CommandPlayer struct {
	args []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandPlayer parses a space-separated player command line, e.g.
// "mpv --really-quiet". The audio file path is appended as the final
// argument of every invocation.
func NewCommandPlayer(command string) (*CommandPlayer, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("speech: empty player command")
	}
	return &CommandPlayer{args: args}, nil
}

func (p *CommandPlayer) Play(ctx context.Context, file string) error {
	cmd := exec.CommandContext(ctx, p.args[0], append(append([]string(nil), p.args[1:]...), file)...)

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	err := cmd.Run()

	p.mu.Lock()
	p.cmd = nil
	p.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "speech: player")
	}
	return nil
}

func (p *CommandPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}
