package ratelimit

import (
	"sync"
	"time"

	"stdmark-backend/lib/timezone"
)

type key struct {
	userID int64
	action string
}

// Limiter tracks the last invocation of (user, action) pairs and
// refuses repeats inside the cooldown window. State is queried and
// updated under one lock so two racing calls cannot both pass.
type Limiter struct {
	cooldown time.Duration

	mu       sync.Mutex
	lastCall map[key]time.Time
	now      func() time.Time
}

func NewLimiter(cooldown time.Duration) *Limiter {
	return &Limiter{
		cooldown: cooldown,
		lastCall: map[key]time.Time{},
		now:      timezone.Now,
	}
}

// Allow reports whether the action may run now. When it may, the
// invocation is recorded immediately. When it may not, the remaining
// wait is returned instead.
func (l *Limiter) Allow(userID int64, action string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{userID: userID, action: action}
	now := l.now()

	last, ok := l.lastCall[k]
	if ok {
		elapsed := now.Sub(last)
		if elapsed < l.cooldown {
			return false, l.cooldown - elapsed
		}
	}

	l.lastCall[k] = now
	return true, 0
}
