package database

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/logger"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "ledger-logs")
	if err != nil {
		panic(err)
	}
	l := logger.Init(logger.Options{Dir: dir, Console: io.Discard})

	code := m.Run()

	l.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

// fakeClock is a controllable clock for expiry tests
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingPublisher keeps every published event type
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishEvent(eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type testLedgers struct {
	backend   *MemoryBackend
	warnings  *WarningLedger
	bans      *BanRequestLedger
	clock     *fakeClock
	publisher *recordingPublisher
}

func newTestLedgers(t *testing.T) *testLedgers {
	t.Helper()
	clock := newFakeClock()
	publisher := &recordingPublisher{}
	backend := NewMemoryBackend("warnings")
	store := NewWarningsStore(backend, LoadFailOpen)
	opts := Options{Clock: clock.Now, Publisher: publisher}

	return &testLedgers{
		backend:   backend,
		warnings:  NewWarningLedger(store, opts),
		bans:      NewBanRequestLedger(store, opts),
		clock:     clock,
		publisher: publisher,
	}
}

var ctx = context.Background()
