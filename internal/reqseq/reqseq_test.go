package reqseq

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBeginRefusesOlderSequence(t *testing.T) {
	g := NewGuard(time.Minute)

	require.True(t, g.Begin("s1", 10))
	require.True(t, g.Begin("s1", 12))
	require.False(t, g.Begin("s1", 11))
	require.True(t, g.Begin("s1", 12))

	// other sessions are independent
	require.True(t, g.Begin("s2", 1))
}

func TestCurrentDetectsOvertakenResponse(t *testing.T) {
	g := NewGuard(time.Minute)

	require.True(t, g.Begin("s1", 100))
	require.True(t, g.Begin("s1", 200))

	require.False(t, g.Current("s1", 100))
	require.True(t, g.Current("s1", 200))
	require.True(t, g.Current("unknown", 5))
}

func TestUnsequencedRequestsAlwaysAdmitted(t *testing.T) {
	g := NewGuard(time.Minute)
	require.True(t, g.Begin("s1", 50))
	require.True(t, g.Begin("s1", 0))
	require.True(t, g.Current("s1", 0))
	require.True(t, g.Current("s1", 50))
}

func TestExpiredEntriesAreForgotten(t *testing.T) {
	g := NewGuard(time.Second)
	now := time.Unix(1_700_000_000, 0)
	g.now = func() time.Time { return now }

	require.True(t, g.Begin("s1", 100))
	now = now.Add(2 * time.Second)
	require.True(t, g.Begin("s1", 50), "stale entry should not block after ttl")

	for i := 0; i < 70; i++ {
		require.True(t, g.Begin("k"+strconv.Itoa(i), 1))
	}
	now = now.Add(5 * time.Second)
	for i := 0; i < 64; i++ {
		g.Begin("fresh", int64(i+1))
	}
	require.Equal(t, 1, g.Len())
}

func TestConcurrentBeginKeepsNewest(t *testing.T) {
	g := NewGuard(time.Minute)

	var wg sync.WaitGroup
	for i := 1; i <= 200; i++ {
		wg.Add(1)
		go func(seq int64) {
			defer wg.Done()
			g.Begin("s1", seq)
		}(int64(i))
	}
	wg.Wait()

	require.True(t, g.Current("s1", 200))
	require.False(t, g.Current("s1", 199))
	require.False(t, g.Begin("s1", 150))
}
