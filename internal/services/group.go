package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"socialevents/internal/domain"
)

type groupService struct {
	// mu serializes membership check-then-act sequences so a concurrent join
	// and kick reinstatement cannot create duplicate records for one pair.
	mu sync.Mutex

	groupRepo      domain.GroupRepository
	memberRepo     domain.GroupMemberRepository
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewGroupService creates the group membership engine.
func NewGroupService(
	groupRepo domain.GroupRepository,
	memberRepo domain.GroupMemberRepository,
	logger *slog.Logger,
	timeout time.Duration,
) domain.GroupService {
	return &groupService{
		groupRepo:      groupRepo,
		memberRepo:     memberRepo,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *groupService) CreateGroup(ctx context.Context, creatorID string, input domain.CreateGroupInput) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if creatorID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if input.Name == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	group := &domain.Group{
		Name:        input.Name,
		Image:       input.Image,
		Description: input.Description,
		EventID:     input.EventID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	admin := &domain.GroupMember{
		UserID:   creatorID,
		GroupID:  group.ID,
		Role:     domain.GroupRoleAdmin,
		JoinedAt: now,
	}
	if err := s.memberRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin member: %w", err)
	}

	for _, memberID := range input.MemberIDs {
		if memberID == creatorID {
			continue
		}
		if _, err := s.addMemberLocked(ctx, group.ID, memberID); err != nil {
			if errors.Is(err, domain.ErrAlreadyMember) {
				continue
			}
			return nil, err
		}
	}
	return group, nil
}

func (s *groupService) GetGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}

func (s *groupService) ListUserGroups(ctx context.Context, userID string) ([]*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	groups, err := s.groupRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if groups == nil {
		groups = []*domain.Group{}
	}
	return groups, nil
}

func (s *groupService) UpdateGroup(ctx context.Context, groupID, callerID string, patch domain.GroupPatch) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, domain.ErrInvalidInput
		}
		group.Name = *patch.Name
	}
	if patch.Image != nil {
		group.Image = patch.Image
	}
	if patch.Description != nil {
		group.Description = patch.Description
	}
	group.UpdatedAt = time.Now()

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return group, nil
}

func (s *groupService) DeleteGroup(ctx context.Context, groupID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get group: %w", err)
	}
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return err
	}
	if err := s.groupRepo.Delete(ctx, groupID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func (s *groupService) JoinGroup(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMemberLocked(ctx, groupID, userID)
}

// addMemberLocked admits a user. A kicked record is reinstated in place with
// its flags cleared rather than replaced, so one pair never accumulates
// multiple records. An active record yields ErrAlreadyMember.
func (s *groupService) addMemberLocked(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
	existing, err := s.memberRepo.GetByGroupAndUser(ctx, groupID, userID)
	if err == nil {
		if !existing.IsKicked {
			return nil, domain.ErrAlreadyMember
		}
		existing.IsKicked = false
		existing.KickedAt = nil
		existing.KickedByID = nil
		existing.JoinedAt = time.Now()
		if err := s.memberRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("reinstate member: %w", err)
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get member: %w", err)
	}

	member := &domain.GroupMember{
		UserID:   userID,
		GroupID:  groupID,
		Role:     domain.GroupRoleMember,
		JoinedAt: time.Now(),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, domain.ErrAlreadyMember) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, fmt.Errorf("create member: %w", err)
	}
	return member, nil
}

func (s *groupService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	member, err := s.activeMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (s *groupService) AddMember(ctx context.Context, groupID, userID, callerID string) (*domain.GroupMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMemberLocked(ctx, groupID, userID)
}

// RemoveMember deletes the membership record outright; the user can rejoin
// later with a fresh record.
func (s *groupService) RemoveMember(ctx context.Context, groupID, userID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	member, err := s.activeMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// KickMember disables the membership without deleting it, recording who
// kicked and when. Kicked members disappear from member listings but the
// record remains for reinstatement on re-admission.
func (s *groupService) KickMember(ctx context.Context, groupID, userID, callerID string) (*domain.GroupMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	if userID == callerID {
		return nil, domain.ErrInvalidTarget
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	member, err := s.activeMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	member.IsKicked = true
	member.KickedAt = &now
	member.KickedByID = &callerID
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return member, nil
}

func (s *groupService) PromoteToAdmin(ctx context.Context, groupID, userID, callerID string) (*domain.GroupMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	member, err := s.activeMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	member.Role = domain.GroupRoleAdmin
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return member, nil
}

func (s *groupService) MuteGroup(ctx context.Context, groupID, userID string, until *time.Time) (*domain.GroupMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	member, err := s.activeMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	member.MutedUntil = until
	if until == nil {
		// nil means muted indefinitely; represent with a far-future mark.
		forever := time.Now().AddDate(100, 0, 0)
		member.MutedUntil = &forever
	}
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return member, nil
}

func (s *groupService) UnmuteGroup(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	member, err := s.activeMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	member.MutedUntil = nil
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return member, nil
}

func (s *groupService) ListMembers(ctx context.Context, groupID string) ([]*domain.GroupMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	members, err := s.memberRepo.ListActiveByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if members == nil {
		members = []*domain.GroupMember{}
	}
	return members, nil
}

// activeMember fetches the user's membership record and treats a kicked
// record as absent.
func (s *groupService) activeMember(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
	member, err := s.memberRepo.GetByGroupAndUser(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	if member.IsKicked {
		return nil, domain.ErrNotFound
	}
	return member, nil
}

// requireAdmin verifies the caller is an active ADMIN member of the group.
func (s *groupService) requireAdmin(ctx context.Context, groupID, callerID string) error {
	member, err := s.memberRepo.GetByGroupAndUser(ctx, groupID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("get caller membership: %w", err)
	}
	if member.IsKicked || member.Role != domain.GroupRoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}
