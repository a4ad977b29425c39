package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ariefcatur/go-skip-selector/internal/selection"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/ariefcatur/go-skip-selector/internal/viewport"
	"github.com/google/uuid"
)

var (
	ErrNotAllowed  = errors.New("action not allowed in current state")
	ErrUnknownSkip = errors.New("unknown skip")
	ErrInvalidMode = errors.New("invalid view mode")
	ErrClosed      = errors.New("session closed")
)

// Source is the cached catalog, normally *catalog.Cache.
type Source interface {
	GetCatalog(ctx context.Context, q skips.Query) (skips.Catalog, error)
	Refresh(ctx context.Context, q skips.Query) (skips.Catalog, error)
}

// Emitter receives the confirmation hand-off, normally kafka.EnvelopeEmitter.
type Emitter interface {
	Emit(ev skips.Envelope)
}

type Options struct {
	SessionID string
	ClientID  string
	Query     skips.Query
	Producer  string // service name stamped on events
}

type Deps struct {
	Source  Source
	Store   *selection.Store
	Tracker *viewport.Tracker
	Emitter Emitter // optional
}

// Controller runs the selection state machine of one session. Events are
// applied one at a time; only catalog loads run outside the lock, and
// their results are dropped if the session moved on or was closed.
type Controller struct {
	mu   sync.Mutex
	opts Options
	deps Deps

	phase   Phase
	reason  Reason
	err     error
	catalog skips.Catalog // sorted by size
	mode    ViewMode
	loadGen uint64
	closed  bool
}

func New(opts Options, deps Deps) *Controller {
	c := &Controller{
		opts:  opts,
		deps:  deps,
		phase: PhaseLoading,
		mode:  ModeInteractive,
	}
	deps.Tracker.SetAnchor(c.mode.AnchorID())
	return c
}

func (c *Controller) ID() string       { return c.opts.SessionID }
func (c *Controller) ClientID() string { return c.opts.ClientID }

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Start performs the initial load. It blocks until the catalog arrives or
// the cache gives up.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.phase != PhaseLoading {
		c.mu.Unlock()
		return ErrNotAllowed
	}
	c.loadGen++
	gen := c.loadGen
	c.mu.Unlock()

	cat, err := c.deps.Source.GetCatalog(ctx, c.opts.Query)
	c.finishLoad(gen, cat, err)
	return nil
}

// Retry is the user-initiated recovery from Error; it bypasses staleness
// and blocks until the new attempt sequence ends.
func (c *Controller) Retry(ctx context.Context) error {
	gen, err := c.beginRetry()
	if err != nil {
		return err
	}
	c.refresh(ctx, gen)
	return nil
}

// RetryAsync moves to Loading immediately and loads in the background.
func (c *Controller) RetryAsync(ctx context.Context) error {
	gen, err := c.beginRetry()
	if err != nil {
		return err
	}
	go c.refresh(ctx, gen)
	return nil
}

func (c *Controller) beginRetry() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	if err := c.transition(PhaseLoading); err != nil {
		return 0, err
	}
	c.reason, c.err = ReasonNone, nil
	c.loadGen++
	return c.loadGen, nil
}

func (c *Controller) refresh(ctx context.Context, gen uint64) {
	cat, err := c.deps.Source.Refresh(ctx, c.opts.Query)
	c.finishLoad(gen, cat, err)
}

func (c *Controller) finishLoad(gen uint64, cat skips.Catalog, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.loadGen || c.phase != PhaseLoading {
		log.Printf("session %s: discarding stale catalog load", c.opts.SessionID)
		return
	}
	if err == nil && len(cat) == 0 {
		err = &skips.EmptyCatalogError{}
	}
	if err != nil {
		_ = c.transition(PhaseError)
		c.err = err
		c.reason = ReasonOther
		if skips.IsNetwork(err) {
			c.reason = ReasonNetwork
		}
		log.Printf("session %s: catalog %s failed (%s): %v", c.opts.SessionID, c.opts.Query.Key(), c.reason, err)
		return
	}
	c.catalog = cat.SortedBySize()
	_ = c.transition(PhaseBrowsing)
	c.syncTracker()
}

// Toggle is the user's pick: re-picking the selected skip deselects it.
func (c *Controller) Toggle(ctx context.Context, skip skips.Skip) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guard(PhaseBrowsing); err != nil {
		return err
	}
	c.deps.Store.Toggle(ctx, skip)
	c.syncTracker()
	return nil
}

// ToggleByID resolves id against the loaded catalog first.
func (c *Controller) ToggleByID(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guard(PhaseBrowsing); err != nil {
		return err
	}
	skip, ok := c.catalog.Find(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSkip, id)
	}
	c.deps.Store.Toggle(ctx, skip)
	c.syncTracker()
	return nil
}

// Continue opens the confirmation step. Without a selection it does nothing.
func (c *Controller) Continue() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guard(PhaseBrowsing); err != nil {
		return err
	}
	if _, ok := c.deps.Store.Selected(); !ok {
		return nil
	}
	return c.transition(PhaseConfirming)
}

// Dismiss closes the confirmation and always resets the pick.
func (c *Controller) Dismiss(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guard(PhaseConfirming); err != nil {
		return err
	}
	c.deps.Store.Clear(ctx)
	_ = c.transition(PhaseBrowsing)
	c.syncTracker()
	return nil
}

// ContinueBooking emits the confirmation hand-off. The state stays
// Confirming; what happens next belongs to the booking flow.
func (c *Controller) ContinueBooking() (skips.Envelope, error) {
	ev, err := c.confirmation()
	if err != nil {
		return skips.Envelope{}, err
	}
	// Emit may block on a full producer inbox; keep it outside mu.
	if c.deps.Emitter != nil {
		c.deps.Emitter.Emit(ev)
	}
	return ev, nil
}

// confirmation builds the hand-off envelope for the current selection.
func (c *Controller) confirmation() (skips.Envelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guard(PhaseConfirming); err != nil {
		return skips.Envelope{}, err
	}
	skip, ok := c.deps.Store.Selected()
	if !ok {
		return skips.Envelope{}, ErrNotAllowed
	}
	total, err := skip.TotalPrice()
	if err != nil {
		return skips.Envelope{}, err
	}
	ev := skips.Envelope{
		EventID:       uuid.NewString(),
		EventType:     skips.EventSelectionConfirmed,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.opts.Producer,
		CorrelationID: c.opts.SessionID,
	}
	ev.Payload, err = jsonPayload(skips.SelectionConfirmedPayload{
		SessionID:      c.opts.SessionID,
		ClientID:       c.opts.ClientID,
		Postcode:       c.opts.Query.Postcode,
		Area:           c.opts.Query.Area,
		Skip:           skip,
		TotalPrice:     total.StringFixed(2),
		HirePeriodDays: skip.HirePeriodDays,
	})
	if err != nil {
		return skips.Envelope{}, err
	}
	log.Printf("session %s: skip %d confirmed (%s)", c.opts.SessionID, skip.ID, skips.FormatGBP(total))
	return ev, nil
}

// SetViewMode switches between the interactive and comparison layouts;
// the floating action follows the new mode's continue button.
func (c *Controller) SetViewMode(mode ViewMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.mode = mode
	c.deps.Tracker.SetAnchor(mode.AnchorID())
	return nil
}

// Close tears the session down. Pending loads are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.deps.Tracker.Close()
}

func (c *Controller) guard(want Phase) error {
	if c.closed {
		return ErrClosed
	}
	if c.phase != want {
		return fmt.Errorf("%w: %s", ErrNotAllowed, c.phase)
	}
	return nil
}

func (c *Controller) transition(to Phase) error {
	if !CanTransition(c.phase, to) {
		return fmt.Errorf("%w: %s -> %s", ErrNotAllowed, c.phase, to)
	}
	c.phase = to
	return nil
}

// syncTracker: floating action hanya relevan saat katalog tampil.
func (c *Controller) syncTracker() {
	_, has := c.deps.Store.Selected()
	shown := c.phase == PhaseBrowsing || c.phase == PhaseConfirming
	c.deps.Tracker.SetSelection(has && shown && !c.closed)
}
