package sync

import (
	stdsync "sync"
	"testing"

	"studyhub/internal/model"
	"studyhub/internal/realtime"
	"studyhub/pkg/config"
	"studyhub/pkg/logger"

	"github.com/stretchr/testify/require"
)

// --- Test Setup ---

// startHub configures realtime defaults and starts an in-process hub.
func startHub(t *testing.T) *realtime.Hub {
	config.GlobalConfig.Realtime = config.RealtimeConfig{
		Provider:               "channel",
		SubscriberBufferSize:   64,
		PublishBufferSize:      256,
		DeliverRetryCount:      3,
		DeliverRetryIntervalMs: 10,
	}
	if logger.L == nil {
		require.NoError(t, logger.InitLogger("info", false))
	}

	hub := realtime.NewHub()
	go hub.Run()
	return hub
}

func publishRow(t *testing.T, hub *realtime.Hub, table string, op realtime.Op, row any) {
	t.Helper()
	event, err := realtime.NewEvent(table, op, row)
	require.NoError(t, err)
	require.NoError(t, hub.Publish(event))
}

// --- In-memory store fakes ---

type fakeMessageStore struct {
	mu   stdsync.Mutex
	rows []model.Message
}

func (f *fakeMessageStore) add(rows ...model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows...)
}

func (f *fakeMessageStore) FindByGroupID(groupID uint, limit, offset int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, m := range f.rows {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeProfileStore struct {
	mu       stdsync.Mutex
	users    map[uint]model.User
	failFind bool
}

func newFakeProfileStore(users ...model.User) *fakeProfileStore {
	f := &fakeProfileStore{users: make(map[uint]model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeProfileStore) FindByID(userID uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, nil
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeProfileStore) FindByIDs(userIDs []uint) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	if f.failFind {
		return out, nil
	}
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeRequestStore struct {
	mu   stdsync.Mutex
	rows []model.GroupRequest
}

func (f *fakeRequestStore) set(rows ...model.GroupRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append([]model.GroupRequest(nil), rows...)
}

func (f *fakeRequestStore) FindByRequester(requesterID uint) ([]model.GroupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.GroupRequest
	for _, r := range f.rows {
		if r.RequesterID == requesterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) FindPendingByGroupIDs(groupIDs []uint) ([]model.GroupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make(map[uint]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		ids[id] = struct{}{}
	}
	var out []model.GroupRequest
	for _, r := range f.rows {
		if _, ok := ids[r.GroupID]; ok && r.Status == model.RequestStatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeGroupStore struct {
	mu      stdsync.Mutex
	created map[uint][]uint
}

func (f *fakeGroupStore) FindIDsCreatedBy(userID uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[userID], nil
}

type fakeNotificationStore struct {
	mu   stdsync.Mutex
	rows []model.Notification
}

func (f *fakeNotificationStore) set(rows ...model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append([]model.Notification(nil), rows...)
}

func (f *fakeNotificationStore) FindByUserID(userID uint) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(notificationID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == notificationID {
			f.rows[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationStore) MarkAllRead(userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].UserID == userID {
			f.rows[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationStore) CountUnread(userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.rows {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
