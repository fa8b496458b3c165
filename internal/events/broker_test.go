package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mxdrAdvisor/internal/storage"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	first := b.Subscribe()
	second := b.Subscribe()
	require.Equal(t, 2, b.Subscribers())

	b.Publish(Event{Type: LeadCreated, Lead: storage.Lead{ID: "l1"}})

	assert.Equal(t, "l1", (<-first).Lead.ID)
	assert.Equal(t, LeadCreated, (<-second).Type)

	b.Unsubscribe(first)
	b.Unsubscribe(first)
	assert.Equal(t, 1, b.Subscribers())
	_, open := <-first
	assert.False(t, open)
}

func TestBrokerDropsForSlowSubscribers(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	for i := 0; i < 20; i++ {
		b.Publish(Event{Type: LeadUpdated})
	}
	assert.Len(t, ch, cap(ch))
}

func TestNilBrokerPublishIsNoop(t *testing.T) {
	var b *Broker
	assert.NotPanics(t, func() { b.Publish(Event{}) })
}
