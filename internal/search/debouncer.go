// Package search runs catalog searches for a stream of keystrokes.
package search

import (
	"context"
	"happy-game/internal/constants"
	"happy-game/internal/domain"
	"sync"
	"time"
	"unicode/utf8"
)

// ShouldFetch reports whether a query is worth a request: empty lists
// everything and a single character is too broad. Whitespace counts.
func ShouldFetch(query string) bool {
	n := utf8.RuneCountInString(query)
	return n == 0 || n >= constants.MinSearchLength
}

// SearchFunc runs one search. An empty query lists all games.
type SearchFunc func(ctx context.Context, query string) ([]domain.Game, error)

type Update struct {
	Query   string        `json:"query"`
	Loading bool          `json:"loading"`
	Games   []domain.Game `json:"games"`
	Error   string        `json:"error,omitempty"`
}

// Debouncer issues at most one search per quiet period and never publishes
// a result older than the latest search it started.
type Debouncer struct {
	ctx     context.Context
	delay   time.Duration
	search  SearchFunc
	publish func(Update)

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	stopped    bool

	// keeps publish calls ordered
	publishMu sync.Mutex
}

func NewDebouncer(ctx context.Context, delay time.Duration, search SearchFunc, publish func(Update)) *Debouncer {
	if delay <= 0 {
		delay = constants.SearchDebounce
	}
	return &Debouncer{ctx: ctx, delay: delay, search: search, publish: publish}
}

// Type records a keystroke. Any pending search is rescheduled.
func (d *Debouncer) Type(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	if !ShouldFetch(query) {
		d.timer = nil
		return
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(query) })
}

func (d *Debouncer) fire(query string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.generation++
	gen := d.generation
	d.mu.Unlock()

	d.emit(gen, Update{Query: query, Loading: true})

	games, err := d.search(d.ctx, query)
	update := Update{Query: query, Games: games}
	if err != nil {
		update.Error = err.Error()
	}
	if update.Games == nil {
		update.Games = []domain.Game{}
	}
	d.emit(gen, update)
}

func (d *Debouncer) emit(gen uint64, update Update) {
	d.publishMu.Lock()
	defer d.publishMu.Unlock()

	d.mu.Lock()
	stale := d.stopped || gen != d.generation
	d.mu.Unlock()
	if stale {
		return
	}
	d.publish(update)
}

// Stop cancels any pending search and suppresses in-flight results.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
