// Package ratelimit implements the per-location submission cooldown.
//
// The cooldown is advisory only. It lives in a single local key-value
// blob with no coordination across devices, browser tabs, or processes
// sharing the same storage, and it disappears when that storage is
// cleared. Treat it as a UX nicety against accidental double reporting,
// never as a security control.
package ratelimit

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	// DefaultKey is the well-known storage key holding the blob.
	DefaultKey = "bendy_crowd_report_limits"

	// DefaultCooldown is the per-location submission cooldown.
	DefaultCooldown = 60 * time.Minute
)

// Storage is the local persistent key-value store the limiter writes
// its blob to.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Limiter tracks the last submission time per location.
type Limiter struct {
	storage  Storage
	key      string
	cooldown time.Duration

	mu  sync.Mutex
	now func() time.Time
}

// NewLimiter creates a limiter over the given storage. A zero cooldown
// falls back to DefaultCooldown, an empty key to DefaultKey.
func NewLimiter(storage Storage, key string, cooldown time.Duration) *Limiter {
	if key == "" {
		key = DefaultKey
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Limiter{
		storage:  storage,
		key:      key,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// limits loads the blob. Missing or corrupt state reads as "no prior
// submissions" so a bad blob can never block a user.
func (l *Limiter) limits() map[string]int64 {
	raw, ok := l.storage.Get(l.key)
	if !ok || raw == "" {
		return map[string]int64{}
	}
	limits := map[string]int64{}
	if err := json.Unmarshal([]byte(raw), &limits); err != nil {
		return map[string]int64{}
	}
	return limits
}

// CanSubmit reports whether a submission for the location is allowed.
func (l *Limiter) CanSubmit(locationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.limits()[locationID]
	if !ok {
		return true
	}
	return l.now().After(time.UnixMilli(last).Add(l.cooldown))
}

// TimeUntilAllowed returns how long until the location can be reported
// on again, floored at zero.
func (l *Limiter) TimeUntilAllowed(locationID string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.limits()[locationID]
	if !ok {
		return 0
	}
	remaining := time.UnixMilli(last).Add(l.cooldown).Sub(l.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Record overwrites the stored timestamp for the location with now.
func (l *Limiter) Record(locationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	limits := l.limits()
	limits[locationID] = l.now().UnixMilli()
	data, err := json.Marshal(limits)
	if err != nil {
		return err
	}
	return l.storage.Set(l.key, string(data))
}
