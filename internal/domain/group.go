package domain

import (
	"context"
	"time"
)

// GroupMemberRole is the member's role within a group.
type GroupMemberRole string

const (
	GroupRoleAdmin  GroupMemberRole = "ADMIN"
	GroupRoleMember GroupMemberRole = "MEMBER"
)

// Group is a chat group, optionally linked to the event it was created for.
// swagger:model Group
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Image       *string   `json:"image,omitempty"`
	Description *string   `json:"description,omitempty"`
	EventID     *string   `json:"event_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupMember is one user's membership record in a group. Kicking disables
// the record instead of deleting it, so re-admission reinstates the same
// record; removal deletes it and a later join starts fresh.
// swagger:model GroupMember
type GroupMember struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	GroupID    string          `json:"group_id"`
	Role       GroupMemberRole `json:"role"`
	JoinedAt   time.Time       `json:"joined_at"`
	MutedUntil *time.Time      `json:"muted_until,omitempty"`
	IsKicked   bool            `json:"is_kicked"`
	KickedAt   *time.Time      `json:"kicked_at,omitempty"`
	KickedByID *string         `json:"kicked_by_id,omitempty"`
}

// GroupRepository defines the interface for group storage.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	Update(ctx context.Context, group *Group) error
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string, at time.Time) error
	ListByMember(ctx context.Context, userID string) ([]*Group, error)
}

// GroupMemberRepository defines storage for membership records.
// GetByGroupAndUser returns the record whether or not it is kicked;
// ListActiveByGroup excludes kicked members.
type GroupMemberRepository interface {
	Create(ctx context.Context, member *GroupMember) error
	GetByGroupAndUser(ctx context.Context, groupID, userID string) (*GroupMember, error)
	Update(ctx context.Context, member *GroupMember) error
	Delete(ctx context.Context, id string) error
	ListActiveByGroup(ctx context.Context, groupID string) ([]*GroupMember, error)
}

// CreateGroupInput carries the fields for creating a group. MemberIDs are
// seeded as plain members; the creator always becomes the single admin.
type CreateGroupInput struct {
	Name        string
	Image       *string
	Description *string
	EventID     *string
	MemberIDs   []string
}

// GroupPatch carries the mutable group fields for an update.
type GroupPatch struct {
	Name        *string
	Image       *string
	Description *string
}

// GroupService is the group membership engine. Admin-only operations verify
// that the caller is an active ADMIN member before mutating.
type GroupService interface {
	CreateGroup(ctx context.Context, creatorID string, input CreateGroupInput) (*Group, error)
	GetGroup(ctx context.Context, groupID string) (*Group, error)
	ListUserGroups(ctx context.Context, userID string) ([]*Group, error)
	UpdateGroup(ctx context.Context, groupID, callerID string, patch GroupPatch) (*Group, error)
	DeleteGroup(ctx context.Context, groupID, callerID string) error
	JoinGroup(ctx context.Context, groupID, userID string) (*GroupMember, error)
	LeaveGroup(ctx context.Context, groupID, userID string) error
	AddMember(ctx context.Context, groupID, userID, callerID string) (*GroupMember, error)
	RemoveMember(ctx context.Context, groupID, userID, callerID string) error
	KickMember(ctx context.Context, groupID, userID, callerID string) (*GroupMember, error)
	PromoteToAdmin(ctx context.Context, groupID, userID, callerID string) (*GroupMember, error)
	MuteGroup(ctx context.Context, groupID, userID string, until *time.Time) (*GroupMember, error)
	UnmuteGroup(ctx context.Context, groupID, userID string) (*GroupMember, error)
	ListMembers(ctx context.Context, groupID string) ([]*GroupMember, error)
}
