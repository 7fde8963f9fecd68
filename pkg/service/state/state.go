package state

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/utils/logging"
)

const (
	// DefaultTTL is how long an issued install state stays consumable
	DefaultTTL = 10 * time.Minute

	// tokenBytes gives 256 bits of entropy per state token
	tokenBytes = 32
)

// Store issues and consumes one-time anti-CSRF install states.
//
// State lives in process memory: losing it on restart only forces the
// installer to restart the flow, which is acceptable for a single-instance
// deployment. It is NOT safe behind a load balancer with multiple
// instances; that shape needs a shared external store.
type Store struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// Option is a functional option for Store configuration
type Option func(*Store)

// WithTTL overrides the state lifetime
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source (tests)
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]time.Time),
		ttl:     DefaultTTL,
		now:     time.Now,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Issue generates a fresh state token and records its issue time.
func (s *Store) Issue(ctx context.Context) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerr.Wrap(err, "failed to generate state token")
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[token] = s.now()
	return token, nil
}

// Consume atomically checks that the token exists and has not expired, and
// removes it. Only the first call for a given token can return true: the
// check and the delete happen under one lock so two concurrent callbacks
// cannot both succeed.
func (s *Store) Consume(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	issuedAt, ok := s.entries[token]
	if !ok {
		return false
	}
	delete(s.entries, token)

	return s.now().Sub(issuedAt) <= s.ttl
}

// Len returns the number of live entries (test helper)
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor begins periodic eviction of expired states.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	logging.Default().Info("install state janitor starting",
		"interval", interval.String(),
		"ttl", s.ttl.String())
	logging.Default().Warn("install states are held in process memory; not safe for horizontally scaled deployments")

	go s.run(ctx, interval)
}

// StopJanitor signals the janitor to stop and waits for completion.
func (s *Store) StopJanitor() {
	close(s.stopCh)
	<-s.doneCh
	logging.Default().Info("install state janitor stopped")
}

func (s *Store) run(ctx context.Context, interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if evicted := s.evictExpired(); evicted > 0 {
				logging.Default().Info("evicted expired install states", "count", evicted)
			}

		case <-s.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (s *Store) evictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for token, issuedAt := range s.entries {
		if now.Sub(issuedAt) > s.ttl {
			delete(s.entries, token)
			evicted++
		}
	}
	return evicted
}
