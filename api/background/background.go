package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs fire and forget tasks and lets the server wait for them on
// shutdown.
type Background struct {
	log      logrus.FieldLogger
	wg       sync.WaitGroup
	mu       sync.Mutex
	shutdown bool
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

// Go runs f on its own goroutine. Tasks submitted after Shutdown are dropped.
func (b *Background) Go(f func()) {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		b.log.Warn("background task dropped: shutting down")
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithField("panic", fmt.Sprint(rec)).Error("background task panicked")
			}
		}()

		f()
	}()
}

func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.shutdown = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
