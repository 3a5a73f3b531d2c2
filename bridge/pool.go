package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"go.uber.org/atomic"
)

type poolKey struct {
	identity string
	channel  string
	contract string
}

type poolEntry struct {
	key     poolKey
	gw      interfaces.Gateway
	session *Session
	use     chan struct{}

	// guarded by SessionPool.mu
	refs     int
	lastUsed time.Time
	broken   bool
}

// SessionPool reuses gateways across requests for the same identity, channel and
// contract. Calls on one pooled session are serialized. Entries idle for longer
// than the TTL are closed by a background loop, and entries that saw a network
// failure are discarded once no request holds them.
type SessionPool struct {
	sm      *SessionManager
	idleTTL time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	entries map[poolKey]*poolEntry
	closed  bool

	size    atomic.Int64
	stop    chan struct{}
	stopped chan struct{}
}

// minEvictInterval bounds how often the idle scan runs for very short TTLs.
const minEvictInterval = 10 * time.Millisecond

// NewSessionPool starts a pool that opens gateways through sm.
func NewSessionPool(sm *SessionManager, idleTTL time.Duration, log *slog.Logger) *SessionPool {
	if idleTTL <= 0 {
		idleTTL = time.Minute
	}
	p := &SessionPool{
		sm:      sm,
		idleTTL: idleTTL,
		log:     log,
		entries: make(map[poolKey]*poolEntry),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go p.evictLoop()
	return p
}

// Size returns the number of open pooled gateways.
func (p *SessionPool) Size() int {
	return int(p.size.Load())
}

// WithSession runs fn on a pooled session, opening one if needed.
func (p *SessionPool) WithSession(ctx context.Context, id interfaces.VerifiedIdentity, channel, contract string, fn func(*Session) error) error {
	if !id.Valid() {
		return fmt.Errorf("%w: session requested without a verified identity", interfaces.ErrIdentityUnavailable)
	}

	entry, err := p.acquire(ctx, id, poolKey{identity: id.Label(), channel: channel, contract: contract})
	if err != nil {
		return err
	}

	select {
	case entry.use <- struct{}{}:
	case <-ctx.Done():
		p.release(entry, nil)
		return fmt.Errorf("%w: waiting for pooled session: %v", interfaces.ErrTimeout, ctx.Err())
	}

	var fnErr error
	defer func() {
		<-entry.use
		p.release(entry, fnErr)
	}()

	fnErr = fn(entry.session)
	return fnErr
}

func (p *SessionPool) acquire(ctx context.Context, id interfaces.VerifiedIdentity, key poolKey) (*poolEntry, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("session pool closed")
	}
	if e, ok := p.entries[key]; ok && !e.broken {
		e.refs++
		p.mu.Unlock()
		return e, nil
	}
	p.mu.Unlock()

	gw, session, err := p.sm.open(ctx, id, key.channel, key.contract)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.sm.closeGateway(gw, key.identity)
		return nil, errors.New("session pool closed")
	}
	if e, ok := p.entries[key]; ok && !e.broken {
		// lost the race to a concurrent open
		p.sm.closeGateway(gw, key.identity)
		e.refs++
		return e, nil
	}

	e := &poolEntry{
		key:      key,
		gw:       gw,
		session:  session,
		use:      make(chan struct{}, 1),
		refs:     1,
		lastUsed: time.Now(),
	}
	p.entries[key] = e
	p.size.Inc()
	return e, nil
}

func (p *SessionPool) release(e *poolEntry, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e.refs--
	e.lastUsed = time.Now()
	if errors.Is(err, interfaces.ErrNetworkUnavailable) || errors.Is(err, interfaces.ErrTimeout) {
		e.broken = true
		if cur, ok := p.entries[e.key]; ok && cur == e {
			delete(p.entries, e.key)
		}
	}
	if e.refs == 0 && (e.broken || p.closed) {
		p.closeEntry(e)
	}
}

// closeEntry must be called with p.mu held and e no longer referenced.
func (p *SessionPool) closeEntry(e *poolEntry) {
	if cur, ok := p.entries[e.key]; ok && cur == e {
		delete(p.entries, e.key)
	}
	p.sm.closeGateway(e.gw, e.key.identity)
	p.size.Dec()
}

func (p *SessionPool) evictLoop() {
	defer close(p.stopped)

	interval := p.idleTTL / 2
	if interval < minEvictInterval {
		interval = minEvictInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case now := <-ticker.C:
			p.evictIdle(now)
		}
	}
}

func (p *SessionPool) evictIdle(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.refs == 0 && now.Sub(e.lastUsed) >= p.idleTTL {
			p.log.Debug("Evicting idle ledger session",
				slog.String("identity", e.key.identity),
				slog.String("channel", e.key.channel))
			p.closeEntry(e)
		}
	}
}

// Close stops the eviction loop and closes every idle entry. Entries still in use
// are closed when their last request finishes.
func (p *SessionPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, e := range p.entries {
		if e.refs == 0 {
			p.closeEntry(e)
		}
	}
	p.mu.Unlock()

	close(p.stop)
	<-p.stopped
}
