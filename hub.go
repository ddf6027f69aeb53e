package main

import (
	"context"
	"sync"
	"time"
)

const reapInterval = 5 * time.Second

// connLimiter caps open websocket connections in total and per remote IP.
// It is shared by HTTP handlers and client pumps.
type connLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	total    int
	maxTotal int
	maxPerIP int
}

func newConnLimiter(maxTotal, maxPerIP int) *connLimiter {
	return &connLimiter{perIP: make(map[string]int), maxTotal: maxTotal, maxPerIP: maxPerIP}
}

// Acquire reserves a slot for ip and reports whether one was free
func (l *connLimiter) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.total >= l.maxTotal || l.perIP[ip] >= l.maxPerIP {
		return false
	}
	l.perIP[ip]++
	l.total++
	return true
}

// Release frees a slot taken by Acquire
func (l *connLimiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.perIP[ip] == 0 {
		return
	}
	if l.perIP[ip]--; l.perIP[ip] == 0 {
		delete(l.perIP, ip)
	}
	l.total--
}

// Open returns the number of held slots
func (l *connLimiter) Open() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Hub owns the connected clients, the session registry and the ticket
// issuer. Client lifecycle events arrive over channels and are applied by
// Run.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client

	sessions *SessionManager
	tickets  *TicketIssuer
	conns    *connLimiter
	cfg      *Config
}

// NewHub creates a Hub whose sessions run on arena
func NewHub(cfg *Config, arena *Arena) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		sessions:   NewSessionManager(cfg, arena),
		tickets:    NewTicketIssuer(cfg.TicketSecret, cfg.TicketTTL),
		conns:      newConnLimiter(cfg.MaxConns, cfg.MaxConnsPerIP),
		cfg:        cfg,
	}
}

// Run applies register/unregister events and reaps idle sessions until
// ctx is done. Every session is stopped on return.
func (h *Hub) Run(ctx context.Context) error {
	reap := time.NewTicker(reapInterval)
	defer reap.Stop()
	defer h.sessions.Close()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			_, known := h.clients[c]
			if known {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			c.detach()

		case now := <-reap.C:
			h.sessions.Reap(now)

		case <-ctx.Done():
			return nil
		}
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
