package viewport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const anchor = "continue-button-interactive"

func TestFloatingFollowsAnchorVisibility(t *testing.T) {
	s := NewScreen()
	s.Update(800, map[string]Rect{anchor: {Top: 500, Bottom: 560}})
	tr := NewTracker(s, s, anchor)

	tr.SetSelection(true)
	require.False(t, tr.FloatingVisible())

	// scrolled down: button above the top edge
	s.Update(800, map[string]Rect{anchor: {Top: -120, Bottom: -60}})
	require.True(t, tr.FloatingVisible())

	// back into view
	s.Update(800, map[string]Rect{anchor: {Top: 100, Bottom: 160}})
	require.False(t, tr.FloatingVisible())

	// below the fold
	s.Update(800, map[string]Rect{anchor: {Top: 800, Bottom: 860}})
	require.True(t, tr.FloatingVisible())
}

func TestInitialCheckOnActivation(t *testing.T) {
	s := NewScreen()
	s.Update(600, map[string]Rect{anchor: {Top: 900, Bottom: 960}})
	tr := NewTracker(s, s, anchor)
	require.False(t, tr.FloatingVisible())
	tr.SetSelection(true)
	require.True(t, tr.FloatingVisible())
}

func TestNoSelectionNeverFloats(t *testing.T) {
	s := NewScreen()
	tr := NewTracker(s, s, anchor)
	s.Update(600, map[string]Rect{anchor: {Top: -100, Bottom: -50}})
	require.False(t, tr.FloatingVisible())
	require.Equal(t, 0, s.Listeners())

	tr.SetSelection(true)
	require.True(t, tr.FloatingVisible())
	tr.SetSelection(false)
	require.False(t, tr.FloatingVisible())
	require.Equal(t, 0, s.Listeners())
}

func TestMissingAnchorKeepsLastValue(t *testing.T) {
	s := NewScreen()
	s.Update(600, map[string]Rect{anchor: {Top: -100, Bottom: -50}})
	tr := NewTracker(s, s, anchor)
	tr.SetSelection(true)
	require.True(t, tr.FloatingVisible())

	s.Update(600, nil)
	require.True(t, tr.FloatingVisible())

	s.Update(600, map[string]Rect{anchor: {Top: 10, Bottom: 50}})
	require.False(t, tr.FloatingVisible())
	s.Update(600, map[string]Rect{"something-else": {}})
	require.False(t, tr.FloatingVisible())
}

func TestNoLeakedListeners(t *testing.T) {
	s := NewScreen()
	tr := NewTracker(s, s, anchor)
	for i := 0; i < 5; i++ {
		tr.SetSelection(true)
		tr.SetSelection(true)
		require.Equal(t, 1, s.Listeners())
		tr.SetSelection(false)
		require.Equal(t, 0, s.Listeners())
	}
	tr.SetSelection(true)
	tr.Close()
	require.Equal(t, 0, s.Listeners())
	require.False(t, tr.FloatingVisible())
}

func TestSetAnchorRetargets(t *testing.T) {
	const other = "continue-button-comparison"
	s := NewScreen()
	s.Update(600, map[string]Rect{
		anchor: {Top: -100, Bottom: -40},
		other:  {Top: 200, Bottom: 260},
	})
	tr := NewTracker(s, s, anchor)
	tr.SetSelection(true)
	require.True(t, tr.FloatingVisible())

	tr.SetAnchor(other)
	require.False(t, tr.FloatingVisible())
	require.Equal(t, 1, s.Listeners())
}

func TestSetAnchorToMissingKeepsLastValue(t *testing.T) {
	s := NewScreen()
	s.Update(600, map[string]Rect{anchor: {Top: -100, Bottom: -40}})
	tr := NewTracker(s, s, anchor)
	tr.SetSelection(true)
	require.True(t, tr.FloatingVisible())

	tr.SetAnchor("continue-button-comparison")
	require.True(t, tr.FloatingVisible())
	require.Equal(t, 1, s.Listeners())

	// scrolling with the new anchor still absent changes nothing
	s.Update(600, map[string]Rect{anchor: {Top: 100, Bottom: 160}})
	require.True(t, tr.FloatingVisible())

	// once it renders in view the action hides
	s.Update(600, map[string]Rect{"continue-button-comparison": {Top: 100, Bottom: 160}})
	require.False(t, tr.FloatingVisible())
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	s := NewScreen()
	calls := 0
	unsub := s.Subscribe(func() { calls++ })
	s.Update(100, nil)
	unsub()
	unsub()
	s.Update(100, nil)
	require.Equal(t, 1, calls)
	require.Equal(t, 0, s.Listeners())
}
