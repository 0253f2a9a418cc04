// Package present renders handled chat messages for the console.
package present

import (
	"fmt"
	"io"
	"sync"

	"github.com/you/babel-chat/internal/core"
	"github.com/you/babel-chat/internal/lang"
)

// Console writes one block per handled message: a user line followed by
// one aligned line per reaction. Blocks from concurrent sources are kept
// intact by a mutex.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Present writes the user line and the reaction lines. Spoken reactions get
// a loud-speaker icon, muted ones a crossed-out speaker.
func (c *Console) Present(user string, reactions []core.Reaction) {
	labels := make([]string, len(reactions))
	longest := 0
	for i, r := range reactions {
		labels[i] = fmt.Sprintf("%-11s: %s", string(r.Kind), lang.Name(r.Lang))
		if len(labels[i]) > longest {
			longest = len(labels[i])
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "\U0001F464 User       : %s\n", user)
	for i, r := range reactions {
		icon := "\U0001F508"
		if !r.Spoken {
			icon = "\U0001F507"
		}
		fmt.Fprintf(c.out, "%s %-*s : %s\n", icon, longest, labels[i], r.Text)
	}
}
