package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyEvent(t *testing.T) {
	ev := NewEvent(DummyEventName)

	assert.True(t, ev.Valid())
	assert.True(t, ev.Dummy())
}

func TestUnknownEvent(t *testing.T) {
	ev := NewEvent("no-such-event")

	assert.False(t, ev.Valid())
	assert.False(t, ev.Dummy())
}

func TestCounterRequiresInit(t *testing.T) {
	Terminate()

	_, err := NewCounter(NewEvent(DummyEventName), 0)
	assert.ErrorContains(t, err, "not initialized")
}

func TestCounterRejectsInvalidEvent(t *testing.T) {
	require.NoError(t, Initialize())
	defer Terminate()

	_, err := NewCounter(NewEvent("no-such-event"), 0)
	assert.ErrorContains(t, err, "invalid event")
}

func TestDummyCounter(t *testing.T) {
	require.NoError(t, Initialize())
	defer Terminate()

	c, err := NewCounter(NewEvent(DummyEventName), 0)
	require.NoError(t, err)

	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())

	vals, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, vals)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestInitializeIdempotent(t *testing.T) {
	require.NoError(t, Initialize())
	require.NoError(t, Initialize())

	Terminate()
	Terminate()
}
