package ratelimit

import (
	"testing"
	"time"

	"stdmark-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	now := timezone.Now()
	l := NewLimiter(time.Minute)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow(1, "check_now")
	require.True(t, ok)

	// immediate repeat is refused with the full cooldown remaining
	ok, remaining := l.Allow(1, "check_now")
	require.False(t, ok)
	require.Equal(t, time.Minute, remaining)

	// other users and other actions are independent
	ok, _ = l.Allow(2, "check_now")
	require.True(t, ok)
	ok, _ = l.Allow(1, "register")
	require.True(t, ok)

	now = now.Add(time.Second * 30)
	ok, remaining = l.Allow(1, "check_now")
	require.False(t, ok)
	require.Equal(t, time.Second*30, remaining)

	now = now.Add(time.Second * 31)
	ok, _ = l.Allow(1, "check_now")
	require.True(t, ok)
}
