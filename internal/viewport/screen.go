package viewport

import "sync"

// Screen is the server-side mirror of a client's viewport. The client
// reports geometry after each scroll and Screen fans it out to listeners.
type Screen struct {
	mu        sync.Mutex
	height    float64
	anchors   map[string]Rect
	listeners map[int]func()
	next      int
}

func NewScreen() *Screen {
	return &Screen{anchors: map[string]Rect{}, listeners: map[int]func(){}}
}

func (s *Screen) Anchor(id string) (Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.anchors[id]
	return r, ok
}

func (s *Screen) ViewportHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

func (s *Screen) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Update replaces the known geometry and notifies listeners. Anchors not
// listed are treated as absent from the current view. A non-positive
// height keeps the previous one.
func (s *Screen) Update(height float64, anchors map[string]Rect) {
	s.mu.Lock()
	if height > 0 {
		s.height = height
	}
	s.anchors = make(map[string]Rect, len(anchors))
	for id, r := range anchors {
		s.anchors[id] = r
	}
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *Screen) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
