package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		perSecond uint
		burst     uint
		unlimited bool
	}{
		{name: "standard rate", perSecond: 100, burst: 200},
		{name: "zero burst", perSecond: 10, burst: 0},
		{name: "unlimited", perSecond: 0, burst: 0, unlimited: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.perSecond, tt.burst)
			require.NotNil(t, rl)
			assert.Equal(t, tt.unlimited, rl.Unlimited())
			assert.True(t, rl.Allow(), "first call is always admitted")
		})
	}
}

func TestAllow_BurstExhaustion(t *testing.T) {
	rl := New(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(), "call %d within burst", i)
	}
	assert.False(t, rl.Allow(), "burst exhausted")
}

func TestWait_Unlimited(t *testing.T) {
	rl := New(0, 0)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, rl.Wait(ctx))
	}
}

func TestWait_CancelledContext(t *testing.T) {
	rl := New(1, 1)
	require.True(t, rl.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, rl.Wait(ctx))
}

func TestWait_DeadlineTooShort(t *testing.T) {
	rl := New(1, 1)
	require.True(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx), "next token is a second away")
}

func TestSetLimit(t *testing.T) {
	rl := New(0, 0)
	rl.SetLimit(5)
	assert.False(t, rl.Unlimited())

	rl.SetLimit(0)
	assert.True(t, rl.Unlimited())
}

func TestSetBurst(t *testing.T) {
	rl := New(1, 1)
	rl.SetBurst(4)
	assert.InDelta(t, 1.0, rl.Tokens(), 0.1)
}
