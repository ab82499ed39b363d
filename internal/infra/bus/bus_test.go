package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ulink/internal/domain/entity"
)

func receive(t *testing.T, ch <-chan entity.ResolvedLinkData) entity.ResolvedLinkData {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("no value delivered")

		return entity.ResolvedLinkData{}
	}
}

func TestTopicDeliversToSubscriber(t *testing.T) {
	topic := NewTopic[entity.ResolvedLinkData]()
	ch, cancel := topic.Subscribe()
	defer cancel()

	topic.Publish(entity.ResolvedLinkData{Slug: "abc"})

	assert.Equal(t, "abc", receive(t, ch).Slug)
}

func TestTopicReplaysLatestToLateSubscriber(t *testing.T) {
	topic := NewTopic[entity.ResolvedLinkData]()
	topic.Publish(entity.ResolvedLinkData{Slug: "first"})
	topic.Publish(entity.ResolvedLinkData{Slug: "second"})

	ch, cancel := topic.Subscribe()
	defer cancel()

	assert.Equal(t, "second", receive(t, ch).Slug)
}

func TestTopicOverwritesUnconsumedValue(t *testing.T) {
	topic := NewTopic[entity.ResolvedLinkData]()
	ch, cancel := topic.Subscribe()
	defer cancel()

	// The subscriber never drains between publishes; only the newest
	// value survives.
	topic.Publish(entity.ResolvedLinkData{Slug: "first"})
	topic.Publish(entity.ResolvedLinkData{Slug: "second"})

	assert.Equal(t, "second", receive(t, ch).Slug)
	select {
	case v := <-ch:
		t.Fatalf("unexpected second delivery: %q", v.Slug)
	default:
	}
}

func TestTopicLatest(t *testing.T) {
	topic := NewTopic[entity.ResolvedLinkData]()

	_, ok := topic.Latest()
	assert.False(t, ok)

	topic.Publish(entity.ResolvedLinkData{Slug: "abc"})

	latest, ok := topic.Latest()
	require.True(t, ok)
	assert.Equal(t, "abc", latest.Slug)
}

func TestTopicCancelIsIdempotent(t *testing.T) {
	topic := NewTopic[entity.ResolvedLinkData]()
	ch, cancel := topic.Subscribe()

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancellation must not deliver to the closed
	// channel.
	topic.Publish(entity.ResolvedLinkData{Slug: "abc"})
}

func TestTopicMultipleSubscribers(t *testing.T) {
	topic := NewTopic[entity.ResolvedLinkData]()
	chA, cancelA := topic.Subscribe()
	defer cancelA()
	chB, cancelB := topic.Subscribe()
	defer cancelB()

	topic.Publish(entity.ResolvedLinkData{Slug: "abc"})

	assert.Equal(t, "abc", receive(t, chA).Slug)
	assert.Equal(t, "abc", receive(t, chB).Slug)
}

func TestNewBusTopicsAreEmpty(t *testing.T) {
	b := New()

	_, ok := b.Dynamic.Latest()
	assert.False(t, ok)
	_, ok = b.Unified.Latest()
	assert.False(t, ok)
	_, ok = b.Reinstall.Latest()
	assert.False(t, ok)
	_, ok = b.Logs.Latest()
	assert.False(t, ok)
}
