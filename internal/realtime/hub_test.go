package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"studyhub/pkg/config"
	"studyhub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupHub configures defaults and starts a hub dispatch loop.
func setupHub(t *testing.T) *Hub {
	config.GlobalConfig.Realtime = config.RealtimeConfig{
		Provider:               "channel",
		SubscriberBufferSize:   8,
		PublishBufferSize:      64,
		DeliverRetryCount:      2,
		DeliverRetryIntervalMs: 10,
	}
	if logger.L == nil {
		require.NoError(t, logger.InitLogger("info", false))
	}

	hub := NewHub()
	go hub.Run()
	return hub
}

type testRow struct {
	ID      uint `json:"id"`
	GroupID uint `json:"group_id"`
}

func mustEvent(t *testing.T, table string, op Op, row any) Event {
	event, err := NewEvent(table, op, row)
	require.NoError(t, err)
	return event
}

// receiveEvent waits for one event or fails the test.
func receiveEvent(t *testing.T, c chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-c:
		require.True(t, ok, "subscription channel closed unexpectedly")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_PublishMatchesFilter(t *testing.T) {
	hub := setupHub(t)

	sub := hub.Subscribe(TableMessages, Filter{Column: "group_id", Value: "1"})
	defer hub.Unsubscribe(sub)

	require.NoError(t, hub.Publish(mustEvent(t, TableMessages, OpInsert, testRow{ID: 1, GroupID: 2})))
	require.NoError(t, hub.Publish(mustEvent(t, TableMessages, OpInsert, testRow{ID: 2, GroupID: 1})))

	// Only the group 1 event should arrive.
	event := receiveEvent(t, sub.C)
	var row testRow
	require.NoError(t, event.Decode(&row))
	assert.Equal(t, uint(2), row.ID)
	assert.Equal(t, uint(1), row.GroupID)

	select {
	case extra := <-sub.C:
		t.Fatalf("unexpected extra event: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_EmptyFilterMatchesWholeTable(t *testing.T) {
	hub := setupHub(t)

	sub := hub.Subscribe(TableGroupRequests, Filter{})
	defer hub.Unsubscribe(sub)

	require.NoError(t, hub.Publish(mustEvent(t, TableGroupRequests, OpInsert, testRow{ID: 10, GroupID: 3})))
	require.NoError(t, hub.Publish(mustEvent(t, TableGroupRequests, OpUpdate, testRow{ID: 11, GroupID: 4})))

	first := receiveEvent(t, sub.C)
	second := receiveEvent(t, sub.C)
	assert.Equal(t, OpInsert, first.Op)
	assert.Equal(t, OpUpdate, second.Op)
}

func TestHub_TableIsolation(t *testing.T) {
	hub := setupHub(t)

	msgSub := hub.Subscribe(TableMessages, Filter{})
	notifSub := hub.Subscribe(TableNotifications, Filter{})
	defer hub.Unsubscribe(msgSub)
	defer hub.Unsubscribe(notifSub)

	require.NoError(t, hub.Publish(mustEvent(t, TableNotifications, OpInsert, testRow{ID: 7})))

	event := receiveEvent(t, notifSub.C)
	assert.Equal(t, TableNotifications, event.Table)

	select {
	case event := <-msgSub.C:
		t.Fatalf("message subscriber received foreign event: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := setupHub(t)

	sub := hub.Subscribe(TableMessages, Filter{})
	hub.Unsubscribe(sub)

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.C:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "channel should be closed after unsubscribe")

	// Repeated unsubscribe is a harmless no-op.
	hub.Unsubscribe(sub)
	hub.Unsubscribe(nil)
}

func TestHub_SlowSubscriberEvicted(t *testing.T) {
	config.GlobalConfig.Realtime = config.RealtimeConfig{
		SubscriberBufferSize:   1,
		PublishBufferSize:      64,
		DeliverRetryCount:      1,
		DeliverRetryIntervalMs: 10,
	}
	if logger.L == nil {
		require.NoError(t, logger.InitLogger("info", false))
	}
	hub := NewHub()
	go hub.Run()

	sub := hub.Subscribe(TableMessages, Filter{})

	// First event fills the buffer; the second exhausts retries and evicts.
	require.NoError(t, hub.Publish(mustEvent(t, TableMessages, OpInsert, testRow{ID: 1})))
	require.NoError(t, hub.Publish(mustEvent(t, TableMessages, OpInsert, testRow{ID: 2})))

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.C:
			return !ok
		default:
			return false
		}
	}, 3*time.Second, 20*time.Millisecond, "slow subscriber should be evicted and its channel closed")
}

func TestFilter_Matches(t *testing.T) {
	row, err := json.Marshal(map[string]any{"group_id": 42, "user_id": "7"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter matches all", Filter{}, true},
		{"numeric column match", Filter{Column: "group_id", Value: "42"}, true},
		{"numeric column mismatch", Filter{Column: "group_id", Value: "43"}, false},
		{"string column match", Filter{Column: "user_id", Value: "7"}, true},
		{"missing column", Filter{Column: "status", Value: "pending"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(row))
		})
	}
}

func TestFilter_MatchesInvalidJSON(t *testing.T) {
	filter := Filter{Column: "group_id", Value: "1"}
	assert.False(t, filter.Matches(json.RawMessage("not-json")))
}
