package background

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestShutdownWaitsForTasks(t *testing.T) {
	bg := New(quietLogger())

	var done int32
	for i := 0; i < 5; i++ {
		bg.Go(func() {
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&done, 1)
		})
	}

	if err := bg.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := atomic.LoadInt32(&done); got != 5 {
		t.Fatalf("expected 5 finished tasks, got %d", got)
	}

	bg.Go(func() { atomic.AddInt32(&done, 1) })
	time.Sleep(5 * time.Millisecond)
	if got := atomic.LoadInt32(&done); got != 5 {
		t.Fatalf("task after shutdown must be dropped, got %d", got)
	}
}

func TestShutdownTimeout(t *testing.T) {
	bg := New(quietLogger())

	release := make(chan struct{})
	bg.Go(func() { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := bg.Shutdown(ctx); err == nil {
		t.Fatal("expected shutdown to time out")
	}
}

func TestPanicsAreRecovered(t *testing.T) {
	bg := New(quietLogger())
	bg.Go(func() { panic("boom") })

	if err := bg.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
