package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup(t *testing.T) {
	db := NewTestDB(t)
	owner := CreateTestUser(t, db)

	group, err := db.CreateGroup(owner.ID, "Family", "the whole crew")
	require.NoError(t, err)
	assert.NotZero(t, group.ID)
	assert.Len(t, group.InviteCode, 10)
	assert.NotZero(t, group.CalendarID)

	got, err := db.GetGroupForMember(owner.ID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, group.CalendarID, got.CalendarID)
	require.Len(t, got.Members, 1)
	assert.Equal(t, GroupRoleOwner, got.Members[0].Role)

	cal, err := db.GetCalendarForUser(owner.ID, group.CalendarID)
	require.NoError(t, err)
	require.NotNil(t, cal.GroupID)
	assert.Equal(t, group.ID, *cal.GroupID)

	_, err = db.CreateGroup(owner.ID, "  ", "")
	assert.Error(t, err)
}

func TestJoinGroupSharesCalendar(t *testing.T) {
	db := NewTestDB(t)
	owner := CreateTestUser(t, db)
	friend := CreateTestUser(t, db)
	stranger := CreateTestUser(t, db)

	group, err := db.CreateGroup(owner.ID, "Book club", "")
	require.NoError(t, err)
	CreateTestEvent(t, db, owner.ID, group.CalendarID, "Meetup", time.Now().Add(24*time.Hour))

	_, err = db.GetGroupForMember(friend.ID, group.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	joined, err := db.JoinGroupByInviteCode(friend.ID, " "+group.InviteCode+" ")
	require.NoError(t, err)
	assert.Equal(t, group.ID, joined.ID)

	// Joining twice is a no-op
	_, err = db.JoinGroupByInviteCode(friend.ID, group.InviteCode)
	require.NoError(t, err)

	members, err := db.ListGroupMembers(group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	events, err := db.ListEventsForUser(friend.ID, EventFilter{CalendarID: Int64Ptr(group.CalendarID)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Meetup", events[0].Title)

	events, err = db.ListEventsForUser(stranger.ID, EventFilter{CalendarID: Int64Ptr(group.CalendarID)})
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = db.JoinGroupByInviteCode(stranger.ID, "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveGroupMember(t *testing.T) {
	db := NewTestDB(t)
	owner := CreateTestUser(t, db)
	a := CreateTestUser(t, db)
	b := CreateTestUser(t, db)

	group, err := db.CreateGroup(owner.ID, "Trip", "")
	require.NoError(t, err)
	_, err = db.JoinGroupByInviteCode(a.ID, group.InviteCode)
	require.NoError(t, err)
	_, err = db.JoinGroupByInviteCode(b.ID, group.InviteCode)
	require.NoError(t, err)

	assert.ErrorIs(t, db.RemoveGroupMember(a.ID, group.ID, b.ID), ErrNotGroupOwner)
	assert.Error(t, db.RemoveGroupMember(owner.ID, group.ID, owner.ID))

	require.NoError(t, db.RemoveGroupMember(a.ID, group.ID, a.ID))
	require.NoError(t, db.RemoveGroupMember(owner.ID, group.ID, b.ID))

	groups, err := db.ListGroupsForUser(b.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestDeleteGroup(t *testing.T) {
	db := NewTestDB(t)
	owner := CreateTestUser(t, db)
	member := CreateTestUser(t, db)

	group, err := db.CreateGroup(owner.ID, "Party", "")
	require.NoError(t, err)
	_, err = db.JoinGroupByInviteCode(member.ID, group.InviteCode)
	require.NoError(t, err)

	assert.ErrorIs(t, db.DeleteGroup(member.ID, group.ID), ErrNotGroupOwner)
	require.NoError(t, db.DeleteGroup(owner.ID, group.ID))

	_, err = db.GetCalendarForUser(owner.ID, group.CalendarID)
	assert.ErrorIs(t, err, ErrNotFound, "group calendar is removed with the group")

	groups, err := db.ListGroupsForUser(owner.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
