package repository

import (
	"testing"

	"studyhub/internal/apperr"
	"studyhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRequestRepository_Create(t *testing.T) {
	setupTestDB(t)
	repo := NewGroupRequestRepository()

	owner := createTestUser(t, "reqOwner1")
	requester := createTestUser(t, "reqUser1")
	group := createTestGroup(t, owner.ID, "Request Test Group")

	request := &model.GroupRequest{
		GroupID:     group.ID,
		RequesterID: requester.ID,
		Status:      model.RequestStatusPending,
	}
	require.NoError(t, repo.Create(request))
	assert.True(t, request.ID > 0)

	found, err := repo.FindByID(request.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.RequestStatusPending, found.Status)
	assert.Equal(t, group.ID, found.GroupID)
	assert.Equal(t, requester.ID, found.RequesterID)
}

func TestGroupRequestRepository_Create_DuplicateRejected(t *testing.T) {
	setupTestDB(t)
	repo := NewGroupRequestRepository()

	owner := createTestUser(t, "reqOwner2")
	requester := createTestUser(t, "reqUser2")
	group := createTestGroup(t, owner.ID, "Duplicate Request Group")

	first := &model.GroupRequest{GroupID: group.ID, RequesterID: requester.ID, Status: model.RequestStatusPending}
	require.NoError(t, repo.Create(first))

	// Second request for the same (group, requester) pair hits the unique index.
	second := &model.GroupRequest{GroupID: group.ID, RequesterID: requester.ID, Status: model.RequestStatusPending}
	err := repo.Create(second)
	require.Error(t, err)
	assert.True(t, apperr.IsDuplicate(err), "expected a duplicate-key error, got: %v", err)
}

func TestGroupRequestRepository_UpdateStatusFromPending(t *testing.T) {
	setupTestDB(t)
	repo := NewGroupRequestRepository()

	owner := createTestUser(t, "reqOwner3")
	requester := createTestUser(t, "reqUser3")
	group := createTestGroup(t, owner.ID, "Status Flip Group")

	request := &model.GroupRequest{GroupID: group.ID, RequesterID: requester.ID, Status: model.RequestStatusPending}
	require.NoError(t, repo.Create(request))

	flipped, err := repo.UpdateStatusFromPending(request.ID, model.RequestStatusAccepted)
	require.NoError(t, err)
	assert.True(t, flipped, "pending request should flip to accepted")

	found, err := repo.FindByID(request.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.RequestStatusAccepted, found.Status)

	// Terminal states never flow anywhere, not even to the other terminal.
	flipped, err = repo.UpdateStatusFromPending(request.ID, model.RequestStatusRejected)
	require.NoError(t, err)
	assert.False(t, flipped, "accepted request must stay accepted")

	found, err = repo.FindByID(request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAccepted, found.Status)
}

func TestGroupRequestRepository_FindPending(t *testing.T) {
	setupTestDB(t)
	repo := NewGroupRequestRepository()

	owner := createTestUser(t, "reqOwner4")
	requester := createTestUser(t, "reqUser4")
	group := createTestGroup(t, owner.ID, "Find Pending Group")

	none, err := repo.FindPending(group.ID, requester.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	request := &model.GroupRequest{GroupID: group.ID, RequesterID: requester.ID, Status: model.RequestStatusPending}
	require.NoError(t, repo.Create(request))

	pending, err := repo.FindPending(group.ID, requester.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, request.ID, pending.ID)

	// After the flip the pending lookup goes empty again.
	_, err = repo.UpdateStatusFromPending(request.ID, model.RequestStatusRejected)
	require.NoError(t, err)

	gone, err := repo.FindPending(group.ID, requester.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestGroupRequestRepository_FindByRequester(t *testing.T) {
	setupTestDB(t)
	repo := NewGroupRequestRepository()

	owner := createTestUser(t, "reqOwner5")
	requester := createTestUser(t, "reqUser5")
	group1 := createTestGroup(t, owner.ID, "Requester Group A")
	group2 := createTestGroup(t, owner.ID, "Requester Group B")

	require.NoError(t, repo.Create(&model.GroupRequest{GroupID: group1.ID, RequesterID: requester.ID, Status: model.RequestStatusPending}))
	require.NoError(t, repo.Create(&model.GroupRequest{GroupID: group2.ID, RequesterID: requester.ID, Status: model.RequestStatusPending}))

	mine, err := repo.FindByRequester(requester.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	other, err := repo.FindByRequester(owner.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGroupRequestRepository_FindPendingByGroupIDs(t *testing.T) {
	setupTestDB(t)
	repo := NewGroupRequestRepository()

	owner := createTestUser(t, "reqOwner6")
	requester1 := createTestUser(t, "reqUser6a")
	requester2 := createTestUser(t, "reqUser6b")
	group1 := createTestGroup(t, owner.ID, "Inbox Group A")
	group2 := createTestGroup(t, owner.ID, "Inbox Group B")

	pending := &model.GroupRequest{GroupID: group1.ID, RequesterID: requester1.ID, Status: model.RequestStatusPending}
	accepted := &model.GroupRequest{GroupID: group2.ID, RequesterID: requester2.ID, Status: model.RequestStatusPending}
	require.NoError(t, repo.Create(pending))
	require.NoError(t, repo.Create(accepted))
	_, err := repo.UpdateStatusFromPending(accepted.ID, model.RequestStatusAccepted)
	require.NoError(t, err)

	inbox, err := repo.FindPendingByGroupIDs([]uint{group1.ID, group2.ID})
	require.NoError(t, err)
	require.Len(t, inbox, 1, "only pending requests belong in the inbox")
	assert.Equal(t, pending.ID, inbox[0].ID)

	empty, err := repo.FindPendingByGroupIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
