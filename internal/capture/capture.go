// Package capture turns a selection on a page into a saved highlight.
//
// A Capturer is idle until a pointer or key release settles into a
// non-empty selection. It then shows a save affordance and waits. A click
// outside the affordance or a cancel returns it to idle; a save persists the
// highlight, marks the selection in place when the range is still intact,
// shows a toast and announces the new record.
package capture

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/hpungsan/hilite/internal/dom"
	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
	"github.com/hpungsan/hilite/internal/notify"
)

// SavedMessage is the toast text shown after a save.
const SavedMessage = "Highlight saved!"

// Defaults used when Options leave a duration at zero.
const (
	DefaultSettleDelay   = 10 * time.Millisecond
	DefaultToastDuration = 2 * time.Second
)

// Surface is the page a Capturer works on.
type Surface interface {
	URL() string
	Title() string
	Document() *html.Node
	Selection() (dom.Range, bool)
	ClearSelection()
	ShowAffordance(dom.Range) *dom.Overlay
	ShowToast(msg string) *dom.Overlay
}

// Store is the part of the storage gateway a Capturer needs.
type Store interface {
	List(ctx context.Context) []highlight.Highlight
	Create(ctx context.Context, h highlight.Highlight) bool
}

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Options tunes timing. Zero values use the defaults.
type Options struct {
	SettleDelay   time.Duration
	ToastDuration time.Duration

	// AfterFunc schedules f after d. It must not call f synchronously.
	AfterFunc func(d time.Duration, f func()) Timer

	Now func() time.Time
}

// State is the capture state.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "selection-pending"
	}
	return "idle"
}

// SaveResult describes a completed save.
type SaveResult struct {
	Highlight highlight.Highlight `json:"highlight"`
	Wrapped   bool                `json:"wrapped"`
}

// Capturer runs the selection state machine for one page.
type Capturer struct {
	surface Surface
	store   Store
	pub     notify.Publisher
	opts    Options

	loadOnce sync.Once

	mu         sync.Mutex
	state      State
	text       string
	rng        dom.Range
	affordance *dom.Overlay
	settle     Timer
	toasts     []Timer
}

// New returns an idle Capturer. A nil publisher discards notifications.
func New(surface Surface, store Store, pub notify.Publisher, opts Options) *Capturer {
	if pub == nil {
		pub = notify.Discard
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = DefaultToastDuration
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Capturer{surface: surface, store: store, pub: pub, opts: opts}
}

// Load marks the saved highlights for the current page. Only the first call
// does any work; later calls return 0.
func (c *Capturer) Load(ctx context.Context) int {
	applied := 0
	c.loadOnce.Do(func() {
		records := c.store.List(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		applied = dom.Reapply(c.surface.Document(), records, c.surface.URL())
	})
	return applied
}

// PointerUp handles a pointer release.
func (c *Capturer) PointerUp() { c.scheduleCheck() }

// KeyUp handles a key release.
func (c *Capturer) KeyUp() { c.scheduleCheck() }

// SelectionChanged checks the selection right away, for callers whose
// selection is already final.
func (c *Capturer) SelectionChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkSelectionLocked()
}

func (c *Capturer) scheduleCheck() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settle != nil {
		c.settle.Stop()
	}
	c.settle = c.opts.AfterFunc(c.opts.SettleDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.settle = nil
		c.checkSelectionLocked()
	})
}

func (c *Capturer) checkSelectionLocked() {
	r, ok := c.surface.Selection()
	if !ok {
		return
	}
	text := strings.TrimSpace(r.Text())
	if text == "" {
		return
	}
	// At most one affordance at a time.
	c.affordance.Remove()
	c.text = text
	c.rng = r
	c.affordance = c.surface.ShowAffordance(r)
	c.state = Pending
}

// Click handles a document click on target. Clicks inside the affordance
// are left to its own buttons; any other click dismisses it.
func (c *Capturer) Click(target *html.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Pending || c.affordance.Contains(target) {
		return
	}
	c.dismissLocked()
}

// Cancel dismisses a pending selection.
func (c *Capturer) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dismissLocked()
}

func (c *Capturer) dismissLocked() {
	c.affordance.Remove()
	c.affordance = nil
	c.state = Idle
	c.text = ""
	c.rng = dom.Range{}
}

// Save persists the pending selection.
// The visual wrap is best-effort: a detached or unwrappable range is
// skipped and the save still succeeds.
func (c *Capturer) Save(ctx context.Context) (*SaveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Pending {
		return nil, errors.NewInvalidRequest("no pending selection")
	}
	text, rng := c.text, c.rng
	c.dismissLocked()

	h, err := highlight.New(text, c.surface.URL(), c.surface.Title(), c.opts.Now())
	if err != nil {
		return nil, err
	}
	if !c.store.Create(ctx, h) {
		log.Printf("[capture] save %s: storage fault, highlight not persisted", h.ID)
		return nil, errors.NewInternal(nil)
	}

	wrapped := false
	doc := c.surface.Document()
	if rng.Attached(doc) {
		if err := dom.Surround(doc, rng, dom.NewMarker()); err != nil {
			log.Printf("[capture] save %s: skip marker: %v", h.ID, err)
		} else {
			wrapped = true
		}
	}

	toast := c.surface.ShowToast(SavedMessage)
	c.toasts = append(c.toasts, c.opts.AfterFunc(c.opts.ToastDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		toast.Remove()
	}))

	c.surface.ClearSelection()
	c.pub.Publish(notify.Saved(h))

	return &SaveResult{Highlight: h, Wrapped: wrapped}, nil
}

// State returns the current state.
func (c *Capturer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the selected text waiting for a save decision.
func (c *Capturer) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, c.state == Pending
}

// Close stops outstanding timers. Toasts still on the page stay there.
func (c *Capturer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settle != nil {
		c.settle.Stop()
		c.settle = nil
	}
	for _, t := range c.toasts {
		t.Stop()
	}
	c.toasts = nil
}
