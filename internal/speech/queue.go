// Package speech turns queued utterances into audible playback: a FIFO
// queue feeds a single worker that synthesizes, plays and cleans up one
// task at a time.
package speech

import (
	"context"
	"sync"

	"github.com/you/babel-chat/internal/core"
)

// Queue is a thread-safe FIFO of speech tasks. Clear empties pending work
// best-effort; a task already handed to the worker is unaffected.
type Queue struct {
	mu     sync.Mutex
	tasks  []core.SpeechTask
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

func (q *Queue) Enqueue(task core.SpeechTask) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Next blocks until a task is available or ctx is done.
func (q *Queue) Next(ctx context.Context) (core.SpeechTask, error) {
	for {
		q.mu.Lock()
		if len(q.tasks) > 0 {
			task := q.tasks[0]
			q.tasks = q.tasks[1:]
			q.mu.Unlock()
			return task, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return core.SpeechTask{}, ctx.Err()
		case <-q.signal:
		}
	}
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.tasks = nil
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
