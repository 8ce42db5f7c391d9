package activity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAppendKeepsOrderAndDuplicates(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	l := NewLog(zap.NewNop()).WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	l.Info("Connecting to relayer network...")
	l.Info("Connecting to relayer network...")
	l.Success("Order created")
	l.Warning("Deposit window expired")

	entries := l.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, entries[0].Message, entries[1].Message)
	assert.Equal(t, LevelSuccess, entries[2].Level)
	assert.Equal(t, LevelWarning, entries[3].Level)
	assert.Equal(t, base.Add(4*time.Second), entries[3].Timestamp)
}

func TestSince(t *testing.T) {
	l := NewLog(nil)
	for i := 0; i < 5; i++ {
		l.Info(fmt.Sprintf("line %d", i))
	}

	rest := l.Since(3)
	require.Len(t, rest, 2)
	assert.Equal(t, "line 3", rest[0].Message)
	assert.Nil(t, l.Since(5))
	assert.Len(t, l.Since(-1), 5)

	rest[0].Message = "mutated"
	assert.Equal(t, "line 3", l.Entries()[3].Message)
}

func TestClear(t *testing.T) {
	l := NewLog(nil)
	l.Info("a")
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Entries())
}

func TestConcurrentAppendLosesNothing(t *testing.T) {
	l := NewLog(nil)

	const writers, perWriter = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				l.Info(fmt.Sprintf("%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	entries := l.Entries()
	require.Len(t, entries, writers*perWriter)

	// Per-writer order survives interleaving.
	next := make(map[int]int)
	for _, e := range entries {
		var w, i int
		_, err := fmt.Sscanf(e.Message, "%d-%d", &w, &i)
		require.NoError(t, err)
		assert.Equal(t, next[w], i)
		next[w]++
	}
}

func TestMirrorsToLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLog(zap.New(core))

	l.Info("hello")
	l.Warning("careful")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.Equal(t, "activity", logs.All()[0].LoggerName)
}
