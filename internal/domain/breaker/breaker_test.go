package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffleworks/ticketgen/internal/domain/model"
)

func settings(t *testing.T) Settings {
	t.Helper()
	s, err := NewSettings(DefaultThreshold, DefaultCooldown)
	require.NoError(t, err)
	return s
}

func TestNewSettings(t *testing.T) {
	_, err := NewSettings(0, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	s, err := NewSettings(5, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCooldown, s.Cooldown)
}

func TestGateClosed(t *testing.T) {
	s := settings(t)
	d := s.Gate(model.BreakerState{}, time.Now())
	assert.False(t, d.Suppress)
	assert.False(t, d.Reset)
}

func TestGateOpenCoolingDown(t *testing.T) {
	s := settings(t)
	now := time.Now()
	failedAt := now.Add(-20 * time.Second)

	d := s.Gate(model.BreakerState{Failures: 5, LastFailureAt: &failedAt, Open: true}, now)
	assert.True(t, d.Suppress)
	assert.Equal(t, 40*time.Second, d.Remaining)
	assert.False(t, d.Reset)
}

func TestGateOpenCooldownElapsed(t *testing.T) {
	s := settings(t)
	now := time.Now()
	failedAt := now.Add(-61 * time.Second)

	d := s.Gate(model.BreakerState{Failures: 5, LastFailureAt: &failedAt, Open: true}, now)
	assert.False(t, d.Suppress)
	assert.True(t, d.Reset)
}

func TestGateOpenWithoutTimestampResets(t *testing.T) {
	s := settings(t)
	d := s.Gate(model.BreakerState{Open: true}, time.Now())
	assert.False(t, d.Suppress)
	assert.True(t, d.Reset)
}

func TestRecordFailuresOpensAtThreshold(t *testing.T) {
	s := settings(t)
	now := time.Now()

	state := model.BreakerState{}
	for range 4 {
		state = s.RecordFailures(state, 1, now)
	}
	assert.False(t, state.Open)
	assert.Equal(t, 4, state.Failures)

	state = s.RecordFailures(state, 1, now)
	assert.True(t, state.Open)
	assert.Equal(t, 5, state.Failures)
	require.NotNil(t, state.LastFailureAt)
	assert.Equal(t, now, *state.LastFailureAt)
}

func TestRecordFailuresIgnoresZero(t *testing.T) {
	s := settings(t)
	state := s.RecordFailures(model.BreakerState{Failures: 2}, 0, time.Now())
	assert.Equal(t, 2, state.Failures)
	assert.Nil(t, state.LastFailureAt)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, model.BreakerStateClosed, Label(model.BreakerState{}))
	assert.Equal(t, model.BreakerStateOpen, Label(model.BreakerState{Open: true}))
}
