package stats

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPacer(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		interval time.Duration
	}{
		{"ten per second", 10, 100 * time.Millisecond},
		{"fractional rate", 0.5, 2 * time.Second},
		{"zero rate disables pacing", 0, 0},
		{"negative rate disables pacing", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.interval, NewPacer(tt.rate, clock.NewMock()).Interval())
		})
	}
}

func TestPacer_NilDoesNotWait(t *testing.T) {
	var p *Pacer

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}

func TestPacer_SpacesWaits(t *testing.T) {
	mock := clock.NewMock()
	p := NewPacer(10, mock)

	// The first exchange starts right away
	require.NoError(t, p.Wait(context.Background()))

	done := make(chan error, 1)
	go func() { done <- p.Wait(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			waits, slept := p.Delayed()
			assert.Equal(t, int64(1), waits)
			assert.Equal(t, 100*time.Millisecond, slept)
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("Wait did not return after the mock clock advanced")
		}
		mock.Add(10 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
}

func TestPacer_NoBurstAfterIdle(t *testing.T) {
	mock := clock.NewMock()
	p := NewPacer(10, mock)

	require.NoError(t, p.Wait(context.Background()))
	mock.Add(time.Second)

	// Idle time is not saved up: one immediate start, then spacing again
	require.NoError(t, p.Wait(context.Background()))
	waits, _ := p.Delayed()
	assert.Equal(t, int64(0), waits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
	waits, slept := p.Delayed()
	assert.Equal(t, int64(1), waits)
	assert.Equal(t, 100*time.Millisecond, slept)
}
