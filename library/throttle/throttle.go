// Package throttle limits request rates, overall and per client.
package throttle

import (
	"sync"

	"github.com/Laisky/errors/v2"
	"golang.org/x/time/rate"
)

// Config configuration for Throttle
type Config struct {
	TotalNPerSec, TotalBurst     int
	EachKeyNPerSec, EachKeyBurst int
}

// Throttle is a token bucket shared by everyone plus one bucket per key
type Throttle struct {
	mu    sync.Mutex
	cfg   Config
	total *rate.Limiter
	keys  map[string]*rate.Limiter
}

// New create new Throttle
func New(cfg Config) (*Throttle, error) {
	if cfg.TotalNPerSec <= 0 || cfg.EachKeyNPerSec <= 0 {
		return nil, errors.New("NPerSec must bigger than 0")
	}
	if cfg.TotalBurst < cfg.TotalNPerSec || cfg.EachKeyBurst < cfg.EachKeyNPerSec {
		return nil, errors.New("burst must not be smaller than NPerSec")
	}

	return &Throttle{
		cfg:   cfg,
		total: rate.NewLimiter(rate.Limit(cfg.TotalNPerSec), cfg.TotalBurst),
		keys:  map[string]*rate.Limiter{},
	}, nil
}

// Allow reports whether key may make one more request now.
// A request rejected by its own bucket does not consume the shared one.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	limiter, ok := t.keys[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(t.cfg.EachKeyNPerSec), t.cfg.EachKeyBurst)
		t.keys[key] = limiter
	}
	t.mu.Unlock()

	return limiter.Allow() && t.total.Allow()
}
