package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_Emit(t *testing.T) {
	b := NewBroadcaster()

	var mu sync.Mutex
	var got []Event
	b.Subscribe(ObserverFunc(func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	}))

	b.Emit(PhaseIngestion, TypeInfo, "starting")
	b.EmitProgress(PhaseChunking, "halfway", 0.5)

	require.Len(t, got, 2)
	assert.Equal(t, PhaseIngestion, got[0].Phase)
	assert.Equal(t, TypeInfo, got[0].Type)
	assert.Equal(t, "starting", got[0].Message)
	assert.NotEmpty(t, got[0].ID)
	assert.NotZero(t, got[0].Timestamp)
	assert.Negative(t, got[0].Progress)

	assert.Equal(t, 0.5, got[1].Progress)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestBroadcaster_MultipleObservers(t *testing.T) {
	b := NewBroadcaster()

	var a, c int
	b.Subscribe(ObserverFunc(func(Event) { a++ }))
	b.Subscribe(ObserverFunc(func(Event) { c++ }))

	b.Emit(PhaseSystem, TypeInfo, "fan out")
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}

func TestBroadcaster_PanickingObserverIsolated(t *testing.T) {
	b := NewBroadcaster()

	var delivered bool
	b.Subscribe(ObserverFunc(func(Event) { panic("bad observer") }))
	b.Subscribe(ObserverFunc(func(Event) { delivered = true }))

	assert.NotPanics(t, func() {
		b.Emit(PhaseSystem, TypeError, "boom")
	})
	assert.True(t, delivered, "later observers still receive the event")
}

func TestBroadcaster_NilSafe(t *testing.T) {
	var b *Broadcaster
	assert.NotPanics(t, func() {
		b.Emit(PhaseSystem, TypeInfo, "dropped")
		b.EmitProgress(PhaseSystem, "dropped", 1)
	})

	zero := &Broadcaster{}
	assert.NotPanics(t, func() {
		zero.Emit(PhaseSystem, TypeInfo, "no observers")
	})
}
