package usecase

import (
	"sync"

	"github.com/vendue/goapi/domain"
)

// guard is the single marketplace-wide reentrancy lock. It fails fast
// rather than queueing: any call arriving while a mutating call is in
// flight, including a reentrant callback from a payment recipient, gets
// domain.ErrReentrantCall immediately.
type guard struct {
	mu     sync.Mutex
	locked bool
}

// enter acquires the lock and returns its release. Callers must invoke the
// release on every exit path.
func (g *guard) enter() (func(), error) {
	g.mu.Lock()
	if g.locked {
		g.mu.Unlock()
		return nil, domain.ErrReentrantCall
	}
	g.locked = true
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		g.locked = false
		g.mu.Unlock()
	}, nil
}
