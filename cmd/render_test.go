package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"anonswap/pkg/activity"
)

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "30:00", formatCountdown(30*time.Minute))
	assert.Equal(t, "01:05", formatCountdown(65*time.Second))
	assert.Equal(t, "00:00", formatCountdown(0))
	assert.Equal(t, "00:02", formatCountdown(1600*time.Millisecond))
}

func TestActivityPrinterTracksClears(t *testing.T) {
	log := activity.NewLog(zap.NewNop())
	p := &activityPrinter{log: log}

	assert.False(t, p.flush())

	log.Info("one")
	log.Info("two")
	assert.True(t, p.flush())
	assert.Equal(t, 2, p.seen)
	assert.False(t, p.flush())

	log.Clear()
	log.Warning("after reset")
	assert.True(t, p.flush())
	assert.Equal(t, 1, p.seen)
}
