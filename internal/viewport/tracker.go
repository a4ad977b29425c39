// Package viewport decides when the floating continue action is shown:
// only while something is selected and the primary continue button has
// scrolled out of the visible viewport.
package viewport

import "sync"

// Rect is an element's vertical extent relative to the viewport top.
type Rect struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Layout answers geometry questions about the current view.
type Layout interface {
	Anchor(id string) (Rect, bool)
	ViewportHeight() float64
}

// ScrollSource notifies subscribers after every scroll.
type ScrollSource interface {
	Subscribe(fn func()) (unsubscribe func())
}

type Tracker struct {
	mu       sync.Mutex
	layout   Layout
	scroll   ScrollSource
	anchorID string

	active      bool
	visible     bool
	sub         uint64
	unsubscribe func()
}

func NewTracker(layout Layout, scroll ScrollSource, anchorID string) *Tracker {
	return &Tracker{layout: layout, scroll: scroll, anchorID: anchorID}
}

// FloatingVisible is false whenever there is no selection.
func (t *Tracker) FloatingVisible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active && t.visible
}

// SetSelection activates tracking when a selection exists and tears the
// scroll listener down when it goes away.
func (t *Tracker) SetSelection(has bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case has && !t.active:
		t.activate()
	case !has && t.active:
		t.deactivate()
	}
}

// SetAnchor re-targets the tracker, e.g. after a view mode switch.
func (t *Tracker) SetAnchor(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id == t.anchorID {
		return
	}
	t.anchorID = id
	if t.active {
		// swap the listener only; visibility carries over until the new
		// anchor is measured
		t.unsubscribeLocked()
		t.subscribe()
		t.recompute()
	}
}

// Close removes any listener; the tracker stays inert afterwards.
func (t *Tracker) Close() {
	t.SetSelection(false)
}

func (t *Tracker) activate() {
	t.active = true
	t.subscribe()
	t.recompute()
}

func (t *Tracker) deactivate() {
	t.active = false
	t.visible = false
	t.unsubscribeLocked()
}

func (t *Tracker) subscribe() {
	t.sub++
	sub := t.sub
	t.unsubscribe = t.scroll.Subscribe(func() { t.onScroll(sub) })
}

func (t *Tracker) unsubscribeLocked() {
	t.sub++
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

func (t *Tracker) onScroll(sub uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// late delivery to a listener that was already replaced
	if !t.active || sub != t.sub {
		return
	}
	t.recompute()
}

// recompute keeps the last value when the anchor is not in the view.
func (t *Tracker) recompute() {
	r, ok := t.layout.Anchor(t.anchorID)
	if !ok {
		return
	}
	h := t.layout.ViewportHeight()
	inView := r.Top < h && r.Bottom > 0
	t.visible = !inView
}
