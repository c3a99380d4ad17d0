package view

import (
	"sort"
	"sync"
)

// Update is one change to the page: a panel fragment or a tab's visibility.
type Update struct {
	Panel   string `json:"panel,omitempty"`
	HTML    string `json:"html,omitempty"`
	Tab     string `json:"tab,omitempty"`
	Visible bool   `json:"visible,omitempty"`
	// Origin is empty for local changes and names the peer for relayed ones.
	Origin string `json:"origin,omitempty"`
}

// Store holds the current fragment of every panel and fans changes out to
// subscribers. It is the page surface the dashboard writes into.
type Store struct {
	mu        sync.RWMutex
	fragments map[string]string
	visible   map[string]bool

	subMu  sync.Mutex
	subs   map[int]chan Update
	nextID int

	drops DropCounter
}

// DropCounter counts updates a subscriber missed because its buffer was full.
type DropCounter interface {
	RecordDroppedUpdate()
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDropCounter reports missed updates to c.
func WithDropCounter(c DropCounter) StoreOption {
	return func(s *Store) { s.drops = c }
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		fragments: make(map[string]string),
		visible:   make(map[string]bool),
		subs:      make(map[int]chan Update),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace swaps a panel's fragment wholesale.
func (s *Store) Replace(panel, markup string) {
	s.Apply(Update{Panel: panel, HTML: markup})
}

// SetVisible shows or hides a tab's subtree.
func (s *Store) SetVisible(tab string, visible bool) {
	s.Apply(Update{Tab: tab, Visible: visible})
}

// Apply records u and notifies subscribers.
func (s *Store) Apply(u Update) {
	s.mu.Lock()
	if u.Panel != "" {
		s.fragments[u.Panel] = u.HTML
	}
	if u.Tab != "" {
		s.visible[u.Tab] = u.Visible
	}
	s.mu.Unlock()

	s.broadcast(u)
}

// Fragment returns the current markup of a panel.
func (s *Store) Fragment(panel string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fragments[panel]
	return f, ok
}

// Visible reports whether a tab is shown.
func (s *Store) Visible(tab string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible[tab]
}

// Snapshot returns the current state as updates: tab visibility first, then
// every panel fragment, each group sorted by name.
func (s *Store) Snapshot() []Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []Update {
	out := make([]Update, 0, len(s.visible)+len(s.fragments))
	for tab, v := range s.visible {
		out = append(out, Update{Tab: tab, Visible: v})
	}
	for panel, html := range s.fragments {
		out = append(out, Update{Panel: panel, HTML: html})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Tab == "") != (b.Tab == "") {
			return a.Tab != ""
		}
		return a.Tab+a.Panel < b.Tab+b.Panel
	})
	return out
}

// Subscribe registers a listener with a buffer of size buf. Slow listeners
// miss updates rather than block writers. Call the returned func to
// unsubscribe; it closes the channel.
func (s *Store) Subscribe(buf int) (<-chan Update, func()) {
	_, ch, cancel := s.subscribe(buf, false)
	return ch, cancel
}

// SubscribeWithSnapshot is Subscribe plus the state at the moment of
// subscribing. Any change not in the snapshot arrives on the channel.
func (s *Store) SubscribeWithSnapshot(buf int) ([]Update, <-chan Update, func()) {
	return s.subscribe(buf, true)
}

func (s *Store) subscribe(buf int, snapshot bool) ([]Update, <-chan Update, func()) {
	ch := make(chan Update, buf)

	var snap []Update
	if snapshot {
		// Holding mu keeps Apply from landing between the copy and the
		// registration.
		s.mu.RLock()
		snap = s.snapshotLocked()
	}
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()
	if snapshot {
		s.mu.RUnlock()
	}

	var once sync.Once
	return snap, ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) broadcast(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			if s.drops != nil {
				s.drops.RecordDroppedUpdate()
			}
		}
	}
}
