package sync

import (
	"sync/atomic"
	"testing"
	"time"

	"studyhub/internal/model"
	"studyhub/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(id, groupID, userID uint, content string, at time.Time) model.Message {
	return model.Message{
		ID:        id,
		GroupID:   groupID,
		UserID:    userID,
		Content:   content,
		CreatedAt: at,
	}
}

func TestMessageView_SelectReconciles(t *testing.T) {
	hub := startHub(t)
	base := time.Now().Add(-time.Hour)

	messages := &fakeMessageStore{}
	messages.add(
		testMessage(1, 1, 10, "first", base),
		testMessage(2, 1, 11, "second", base.Add(time.Minute)),
		testMessage(3, 2, 10, "other group", base.Add(2*time.Minute)),
	)
	profiles := newFakeProfileStore(
		model.User{ID: 10, Username: "alice", Avatar: "alice.png"},
		model.User{ID: 11, Username: "bob", Avatar: "bob.png"},
	)

	view := NewMessageView(hub, messages, profiles)
	defer view.Close()

	view.Select(1)

	rows := view.Messages()
	require.Len(t, rows, 2)
	assert.Equal(t, "first", rows[0].Content)
	assert.Equal(t, "alice", rows[0].SenderName)
	assert.Equal(t, "alice.png", rows[0].SenderAvatar)
	assert.Equal(t, "second", rows[1].Content)
	assert.Equal(t, "bob", rows[1].SenderName)
}

func TestMessageView_EventAppendsAndDedupes(t *testing.T) {
	hub := startHub(t)
	base := time.Now().Add(-time.Hour)

	messages := &fakeMessageStore{}
	messages.add(testMessage(1, 1, 10, "existing", base))
	profiles := newFakeProfileStore(model.User{ID: 10, Username: "alice", Avatar: "alice.png"})

	view := NewMessageView(hub, messages, profiles)
	defer view.Close()

	var changes atomic.Int32
	view.Watch(func() { changes.Add(1) })

	view.Select(1)

	incoming := testMessage(2, 1, 10, "fresh", base.Add(time.Minute))
	publishRow(t, hub, realtime.TableMessages, realtime.OpInsert, incoming)

	require.Eventually(t, func() bool {
		return len(view.Messages()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// At-least-once delivery: the same row arriving again must be dropped.
	publishRow(t, hub, realtime.TableMessages, realtime.OpInsert, incoming)
	time.Sleep(100 * time.Millisecond)

	rows := view.Messages()
	require.Len(t, rows, 2)
	assert.Equal(t, "existing", rows[0].Content)
	assert.Equal(t, "fresh", rows[1].Content)
	assert.Positive(t, changes.Load())
}

func TestMessageView_KeepsCreatedAtOrder(t *testing.T) {
	hub := startHub(t)
	base := time.Now().Add(-time.Hour)

	messages := &fakeMessageStore{}
	messages.add(testMessage(5, 1, 10, "later", base.Add(10*time.Minute)))
	profiles := newFakeProfileStore(model.User{ID: 10, Username: "alice", Avatar: "alice.png"})

	view := NewMessageView(hub, messages, profiles)
	defer view.Close()

	view.Select(1)

	// An event older than the newest local row lands before it, not after.
	publishRow(t, hub, realtime.TableMessages, realtime.OpInsert,
		testMessage(4, 1, 10, "earlier", base))

	require.Eventually(t, func() bool {
		return len(view.Messages()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	rows := view.Messages()
	assert.Equal(t, "earlier", rows[0].Content)
	assert.Equal(t, "later", rows[1].Content)
}

func TestMessageView_SwitchDropsOldGroup(t *testing.T) {
	hub := startHub(t)
	base := time.Now().Add(-time.Hour)

	messages := &fakeMessageStore{}
	messages.add(
		testMessage(1, 1, 10, "in group one", base),
		testMessage(2, 2, 10, "in group two", base.Add(time.Minute)),
	)
	profiles := newFakeProfileStore(model.User{ID: 10, Username: "alice", Avatar: "alice.png"})

	view := NewMessageView(hub, messages, profiles)
	defer view.Close()

	view.Select(1)
	require.Len(t, view.Messages(), 1)

	view.Select(2)

	// Events for the previous group must not leak into the new scope.
	publishRow(t, hub, realtime.TableMessages, realtime.OpInsert,
		testMessage(3, 1, 10, "stale group one event", base.Add(2*time.Minute)))
	publishRow(t, hub, realtime.TableMessages, realtime.OpInsert,
		testMessage(4, 2, 10, "live group two event", base.Add(3*time.Minute)))

	require.Eventually(t, func() bool {
		return len(view.Messages()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	for _, row := range view.Messages() {
		assert.Equal(t, uint(2), row.GroupID)
	}
}

func TestMessageView_SenderFallback(t *testing.T) {
	hub := startHub(t)

	messages := &fakeMessageStore{}
	profiles := newFakeProfileStore()

	view := NewMessageView(hub, messages, profiles)
	defer view.Close()

	view.Select(1)

	// Sender lookup misses: the message still lands with placeholder info.
	publishRow(t, hub, realtime.TableMessages, realtime.OpInsert,
		testMessage(1, 1, 99, "orphan sender", time.Now()))

	require.Eventually(t, func() bool {
		return len(view.Messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	row := view.Messages()[0]
	assert.Equal(t, "Unknown", row.SenderName)
	assert.Equal(t, "default.png", row.SenderAvatar)
}

func TestMessageView_ClosedViewIgnoresEvents(t *testing.T) {
	hub := startHub(t)

	messages := &fakeMessageStore{}
	profiles := newFakeProfileStore(model.User{ID: 10, Username: "alice", Avatar: "alice.png"})

	view := NewMessageView(hub, messages, profiles)
	view.Select(1)
	view.Close()

	publishRow(t, hub, realtime.TableMessages, realtime.OpInsert,
		testMessage(1, 1, 10, "after close", time.Now()))
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, view.Messages())
}

func TestMessageView_FeedDropResubscribesAndReconciles(t *testing.T) {
	feed := newRecordingFeed()
	base := time.Now().Add(-time.Hour)

	messages := &fakeMessageStore{}
	messages.add(testMessage(1, 1, 10, "before drop", base))
	profiles := newFakeProfileStore(model.User{ID: 10, Username: "alice", Avatar: "alice.png"})

	view := NewMessageView(feed, messages, profiles)
	defer view.Close()

	view.Select(1)
	require.Len(t, view.Messages(), 1)

	// A row lands in the store without its event ever reaching the
	// view, then the subscription is severed feed-side. The reconciling
	// refetch after the automatic resubscribe must surface it anyway.
	messages.add(testMessage(2, 1, 10, "while disconnected", base.Add(time.Minute)))
	feed.dropTable(realtime.TableMessages)

	require.Eventually(t, func() bool {
		rows := view.Messages()
		return len(rows) == 2 && rows[1].Content == "while disconnected"
	}, 2*time.Second, 10*time.Millisecond)

	// And the new subscription is live: further events still arrive.
	incoming := testMessage(3, 1, 10, "after recovery", base.Add(2*time.Minute))
	event, err := realtime.NewEvent(realtime.TableMessages, realtime.OpInsert, incoming)
	require.NoError(t, err)
	require.NoError(t, feed.Publish(event))

	require.Eventually(t, func() bool {
		return len(view.Messages()) == 3
	}, 2*time.Second, 10*time.Millisecond)
}
