package services

import (
	"context"
	"testing"
	"time"

	"socialevents/internal/domain"
	"socialevents/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupFixture struct {
	groups  *memory.GroupRepository
	members *memory.GroupMemberRepository
	svc     domain.GroupService
}

func newGroupFixture() *groupFixture {
	members := memory.NewGroupMemberRepository()
	groups := memory.NewGroupRepository(members)
	svc := NewGroupService(groups, members, testLogger(), testTimeout)
	return &groupFixture{groups: groups, members: members, svc: svc}
}

func (f *groupFixture) seedGroup(t *testing.T, creatorID string, memberIDs ...string) *domain.Group {
	t.Helper()
	g, err := f.svc.CreateGroup(context.Background(), creatorID, domain.CreateGroupInput{
		Name:      "Randonnée du dimanche",
		MemberIDs: memberIDs,
	})
	require.NoError(t, err)
	return g
}

func TestGroupService_CreateGroup(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture()

	_, err := f.svc.CreateGroup(ctx, "", domain.CreateGroupInput{Name: "x"})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.svc.CreateGroup(ctx, "alice", domain.CreateGroupInput{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	g, err := f.svc.CreateGroup(ctx, "alice", domain.CreateGroupInput{
		Name:      "Ciné club",
		MemberIDs: []string{"bob", "carol", "alice"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, g.ID)

	members, err := f.svc.ListMembers(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	roles := map[string]domain.GroupMemberRole{}
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	assert.Equal(t, domain.GroupRoleAdmin, roles["alice"])
	assert.Equal(t, domain.GroupRoleMember, roles["bob"])
	assert.Equal(t, domain.GroupRoleMember, roles["carol"])
}

func TestGroupService_JoinAndLeave(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture()
	g := f.seedGroup(t, "alice")

	m, err := f.svc.JoinGroup(ctx, g.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupRoleMember, m.Role)

	_, err = f.svc.JoinGroup(ctx, g.ID, "bob")
	require.ErrorIs(t, err, domain.ErrAlreadyMember)

	_, err = f.svc.JoinGroup(ctx, "missing", "bob")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.svc.LeaveGroup(ctx, g.ID, "bob"))
	err = f.svc.LeaveGroup(ctx, g.ID, "bob")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupService_KickThenRejoin(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture()
	g := f.seedGroup(t, "alice", "bob")

	original, err := f.members.GetByGroupAndUser(ctx, g.ID, "bob")
	require.NoError(t, err)

	kicked, err := f.svc.KickMember(ctx, g.ID, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, kicked.IsKicked)
	require.NotNil(t, kicked.KickedAt)
	require.NotNil(t, kicked.KickedByID)
	assert.Equal(t, "alice", *kicked.KickedByID)

	// Kicked members drop out of listings but the record survives.
	members, err := f.svc.ListMembers(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].UserID)

	// Re-admission reinstates the same record with flags cleared.
	rejoined, err := f.svc.AddMember(ctx, g.ID, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, original.ID, rejoined.ID)
	assert.False(t, rejoined.IsKicked)
	assert.Nil(t, rejoined.KickedAt)
	assert.Nil(t, rejoined.KickedByID)

	members, err = f.svc.ListMembers(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestGroupService_KickAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture()
	g := f.seedGroup(t, "alice", "bob", "carol")

	_, err := f.svc.KickMember(ctx, g.ID, "carol", "bob")
	require.ErrorIs(t, err, domain.ErrForbidden)

	// Admins cannot kick themselves.
	_, err = f.svc.KickMember(ctx, g.ID, "alice", "alice")
	require.ErrorIs(t, err, domain.ErrInvalidTarget)

	_, err = f.svc.KickMember(ctx, g.ID, "not-a-member", "alice")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupService_RemoveMemberDeletesRecord(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture()
	g := f.seedGroup(t, "alice", "bob")

	original, err := f.members.GetByGroupAndUser(ctx, g.ID, "bob")
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveMember(ctx, g.ID, "bob", "alice"))
	_, err = f.members.GetByGroupAndUser(ctx, g.ID, "bob")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Rejoining after removal starts a fresh record.
	rejoined, err := f.svc.JoinGroup(ctx, g.ID, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, rejoined.ID)
}

func TestGroupService_PromoteToAdmin(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture()
	g := f.seedGroup(t, "alice", "bob", "carol")

	_, err := f.svc.PromoteToAdmin(ctx, g.ID, "carol", "bob")
	require.ErrorIs(t, err, domain.ErrForbidden)

	promoted, err := f.svc.PromoteToAdmin(ctx, g.ID, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupRoleAdmin, promoted.Role)

	// The new admin can now manage members.
	_, err = f.svc.KickMember(ctx, g.ID, "carol", "bob")
	require.NoError(t, err)

	// A kicked member cannot be promoted.
	_, err = f.svc.PromoteToAdmin(ctx, g.ID, "carol", "alice")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupService_UpdateAndDeleteGroup(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture()
	g := f.seedGroup(t, "alice", "bob")

	name := "Nouveau nom"
	_, err := f.svc.UpdateGroup(ctx, g.ID, "bob", domain.GroupPatch{Name: &name})
	require.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := f.svc.UpdateGroup(ctx, g.ID, "alice", domain.GroupPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	empty := ""
	_, err = f.svc.UpdateGroup(ctx, g.ID, "alice", domain.GroupPatch{Name: &empty})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	err = f.svc.DeleteGroup(ctx, g.ID, "bob")
	require.ErrorIs(t, err, domain.ErrForbidden)
	require.NoError(t, f.svc.DeleteGroup(ctx, g.ID, "alice"))
	_, err = f.svc.GetGroup(ctx, g.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupService_MuteUnmute(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture()
	g := f.seedGroup(t, "alice", "bob")

	until := time.Now().Add(8 * time.Hour)
	muted, err := f.svc.MuteGroup(ctx, g.ID, "bob", &until)
	require.NoError(t, err)
	require.NotNil(t, muted.MutedUntil)
	assert.True(t, muted.MutedUntil.Equal(until))

	// No deadline means muted until further notice.
	muted, err = f.svc.MuteGroup(ctx, g.ID, "bob", nil)
	require.NoError(t, err)
	require.NotNil(t, muted.MutedUntil)
	assert.True(t, muted.MutedUntil.After(time.Now().AddDate(50, 0, 0)))

	unmuted, err := f.svc.UnmuteGroup(ctx, g.ID, "bob")
	require.NoError(t, err)
	assert.Nil(t, unmuted.MutedUntil)
}

func TestGroupService_ListUserGroups(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture()
	g1 := f.seedGroup(t, "alice", "bob")
	f.seedGroup(t, "carol")

	groups, err := f.svc.ListUserGroups(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, g1.ID, groups[0].ID)

	groups, err = f.svc.ListUserGroups(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, groups)

	// Kicked members no longer see the group.
	_, err = f.svc.KickMember(ctx, g1.ID, "bob", "alice")
	require.NoError(t, err)
	groups, err = f.svc.ListUserGroups(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, groups)
}
