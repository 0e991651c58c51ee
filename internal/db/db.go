package db

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb"
)

const (
	defaultKeepalive = 10 * time.Second
	dialTimeout      = 5 * time.Second
)

// Pool is a round-robin connection pool for OxiDB with auto-reconnect.
type Pool struct {
	host      string
	port      int
	clients   []atomic.Pointer[oxidb.Client]
	mu        []sync.Mutex
	idx       atomic.Uint64
	keepalive time.Duration
	log       *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Option tunes a Pool.
type Option func(*Pool)

// WithKeepalive sets how often idle connections are pinged.
func WithKeepalive(d time.Duration) Option {
	return func(p *Pool) { p.keepalive = d }
}

// WithLogger sets the logger used for reconnect diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// NewPool creates a pool of size OxiDB connections.
func NewPool(host string, port, size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		host:      host,
		port:      port,
		clients:   make([]atomic.Pointer[oxidb.Client], size),
		mu:        make([]sync.Mutex, size),
		keepalive: defaultKeepalive,
		log:       zap.NewNop(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < size; i++ {
		c, err := oxidb.Connect(host, port, dialTimeout)
		if err != nil {
			close(p.done)
			p.Close()
			return nil, fmt.Errorf("pool: connect client %d: %w", i, err)
		}
		p.clients[i].Store(c)
	}
	// Keepalive pings prevent the server's idle timeout from closing us.
	go p.keepaliveLoop()
	return p, nil
}

// Size returns the number of connections.
func (p *Pool) Size() int {
	return len(p.clients)
}

// Get returns the next client in round-robin order.
func (p *Pool) Get() *oxidb.Client {
	n := p.idx.Add(1)
	return p.clients[n%uint64(len(p.clients))].Load()
}

// Ping checks every connection and reports the first failure.
func (p *Pool) Ping() error {
	for i := range p.clients {
		if _, err := p.clients[i].Load().Ping(); err != nil {
			return fmt.Errorf("pool: client %d: %w", i, err)
		}
	}
	return nil
}

// reconnect replaces a broken client at index i.
func (p *Pool) reconnect(i int) {
	p.mu[i].Lock()
	defer p.mu[i].Unlock()
	c, err := oxidb.Connect(p.host, p.port, dialTimeout)
	if err != nil {
		p.log.Warn("pool: reconnect failed", zap.Int("client", i), zap.Error(err))
		return
	}
	if old := p.clients[i].Swap(c); old != nil {
		old.Close()
	}
	p.log.Info("pool: client reconnected", zap.Int("client", i))
}

func (p *Pool) keepaliveLoop() {
	defer close(p.done)
	ticker := time.NewTicker(p.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for i := range p.clients {
				if _, err := p.clients[i].Load().Ping(); err != nil {
					p.log.Warn("pool: ping failed, reconnecting", zap.Int("client", i), zap.Error(err))
					p.reconnect(i)
				}
			}
		}
	}
}

// Close stops the keepalive loop and closes all connections. Safe to call
// more than once.
func (p *Pool) Close() {
	p.stopOnce.Do(func() {
		close(p.stop)
		<-p.done
		for i := range p.clients {
			if c := p.clients[i].Load(); c != nil {
				c.Close()
			}
		}
	})
}
