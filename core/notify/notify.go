// Package notify carries user visible success and failure messages out of the
// stores without making them wait on the delivery.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ArcaneNova/annadata-client-sub001/api/background"
	"github.com/alexedwards/scs/v2"
	"github.com/sirupsen/logrus"
)

type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Successf and Errorf are shorthands used by the stores.
func Successf(ctx context.Context, nt Notifier, title string, format string, args ...any) {
	nt.Notify(ctx, Notification{Level: Success, Title: title, Message: fmt.Sprintf(format, args...)})
}

func Errorf(ctx context.Context, nt Notifier, title string, format string, args ...any) {
	nt.Notify(ctx, Notification{Level: Error, Title: title, Message: fmt.Sprintf(format, args...)})
}

type discard struct{}

func (discard) Notify(context.Context, Notification) {}

var Discard Notifier = discard{}

type multi []Notifier

func (m multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		nt.Notify(ctx, n)
	}
}

func Multi(nts ...Notifier) Notifier {
	return multi(nts)
}

// Log writes notifications to the logger.
type Log struct {
	log logrus.FieldLogger
}

func NewLog(log logrus.FieldLogger) *Log {
	return &Log{log: log}
}

func (l *Log) Notify(ctx context.Context, n Notification) {
	entry := l.log.WithFields(logrus.Fields{
		"title":   n.Title,
		"message": n.Message,
	})
	if n.Level == Error {
		entry.Warn("notification")
		return
	}
	entry.Info("notification")
}

// Async hands every notification to a background task. The wrapped notifier
// receives a context detached from the caller's cancellation.
type Async struct {
	next Notifier
	bg   *background.Background
}

func NewAsync(next Notifier, bg *background.Background) *Async {
	return &Async{next: next, bg: bg}
}

func (a *Async) Notify(ctx context.Context, n Notification) {
	ctx = context.WithoutCancel(ctx)
	a.bg.Go(func() { a.next.Notify(ctx, n) })
}

const flashKey = "notifications"

// Flash queues notifications inside the caller's scs session until a view pops
// them.
type Flash struct {
	sm *scs.SessionManager
	mu sync.Mutex
}

func NewFlash(sm *scs.SessionManager) *Flash {
	return &Flash{sm: sm}
}

func (f *Flash) Notify(ctx context.Context, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	queue := f.load(ctx)
	queue = append(queue, n)

	b, err := json.Marshal(queue)
	if err != nil {
		return
	}
	f.sm.Put(ctx, flashKey, b)
}

// Pop returns and forgets the queued notifications.
func (f *Flash) Pop(ctx context.Context) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	queue := f.load(ctx)
	f.sm.Remove(ctx, flashKey)
	return queue
}

func (f *Flash) load(ctx context.Context) []Notification {
	queue := []Notification{}
	if b := f.sm.GetBytes(ctx, flashKey); len(b) > 0 {
		_ = json.Unmarshal(b, &queue)
	}
	return queue
}
