package coordinator

import (
	"time"

	"github.com/bluess1/Troulette/internal/roulette"
	"github.com/patrickmn/go-cache"
)

// stash keeps the ledger entries of removed players for a grace period so a
// reconnecting participant can resume with their balance.
type stash struct {
	entries *cache.Cache
}

// newStash returns nil when grace is not positive, which disables resuming.
func newStash(grace time.Duration) *stash {
	if grace <= 0 {
		return nil
	}
	return &stash{entries: cache.New(grace, 2*grace)}
}

func (s *stash) put(p roulette.Player) {
	if s == nil {
		return
	}
	s.entries.SetDefault(p.ID, p)
}

// take returns and forgets the entry stored under id.
func (s *stash) take(id string) (roulette.Player, bool) {
	if s == nil || id == "" {
		return roulette.Player{}, false
	}
	v, ok := s.entries.Get(id)
	if !ok {
		return roulette.Player{}, false
	}
	s.entries.Delete(id)
	p, ok := v.(roulette.Player)
	return p, ok
}

func (s *stash) len() int {
	if s == nil {
		return 0
	}
	return s.entries.ItemCount()
}
