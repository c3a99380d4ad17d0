package usecase

import (
	"sync"
	"sync/atomic"
	"time"
)

// PanelState tracks one panel's fetch lifecycle. inFlight is true only
// between dispatch and resolution of a request.
type PanelState struct {
	name     string
	inFlight atomic.Bool

	mu            sync.Mutex
	lastFetchedAt time.Time
	lastError     error
}

// PanelSnapshot is a read-only copy of a PanelState.
type PanelSnapshot struct {
	Name          string     `json:"name"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	InFlight      bool       `json:"in_flight"`
	LastError     string     `json:"last_error,omitempty"`
}

func NewPanelState(name string) *PanelState {
	return &PanelState{name: name}
}

func (p *PanelState) Name() string { return p.name }

func (p *PanelState) InFlight() bool { return p.inFlight.Load() }

// begin claims the in-flight guard. It fails if a request is outstanding.
func (p *PanelState) begin() bool {
	return p.inFlight.CompareAndSwap(false, true)
}

// end records the outcome and releases the guard. A failed fetch keeps the
// previous lastFetchedAt.
func (p *PanelState) end(at time.Time, err error) {
	p.mu.Lock()
	if err == nil {
		p.lastFetchedAt = at
	}
	p.lastError = err
	p.mu.Unlock()
	p.inFlight.Store(false)
}

func (p *PanelState) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError
}

func (p *PanelState) LastFetchedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFetchedAt
}

func (p *PanelState) Snapshot() PanelSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := PanelSnapshot{Name: p.name, InFlight: p.inFlight.Load()}
	if !p.lastFetchedAt.IsZero() {
		t := p.lastFetchedAt
		s.LastFetchedAt = &t
	}
	if p.lastError != nil {
		s.LastError = p.lastError.Error()
	}
	return s
}
