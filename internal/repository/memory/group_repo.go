package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialevents/internal/domain"
)

// GroupRepository is an in-memory implementation of domain.GroupRepository.
type GroupRepository struct {
	mu      sync.RWMutex
	groups  map[string]*domain.Group
	members *GroupMemberRepository
}

// NewGroupRepository returns a group repository backed by the given member
// repository for membership-based listings.
func NewGroupRepository(members *GroupMemberRepository) *GroupRepository {
	return &GroupRepository{
		groups:  make(map[string]*domain.Group),
		members: members,
	}
}

func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	stored := *group
	r.groups[group.ID] = &stored
	return nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *g
	return &out, nil
}

func (r *GroupRepository) Update(ctx context.Context, group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[group.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *group
	r.groups[group.ID] = &stored
	return nil
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.groups, id)
	return nil
}

func (r *GroupRepository) Touch(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return domain.ErrNotFound
	}
	g.UpdatedAt = at
	return nil
}

func (r *GroupRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Group, error) {
	groupIDs, err := r.members.listGroupIDsByUser(userID)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Group
	for _, id := range groupIDs {
		if g, ok := r.groups[id]; ok {
			c := *g
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// GroupMemberRepository is an in-memory implementation of
// domain.GroupMemberRepository. The logical (groupID, userID) membership,
// kicked or not, is indexed so re-admission reuses the original record.
type GroupMemberRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.GroupMember
	byPair map[string]string // groupID+"\x00"+userID -> member ID
}

func NewGroupMemberRepository() *GroupMemberRepository {
	return &GroupMemberRepository{
		byID:   make(map[string]*domain.GroupMember),
		byPair: make(map[string]string),
	}
}

func (r *GroupMemberRepository) Create(ctx context.Context, member *domain.GroupMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(member.GroupID, member.UserID)
	if _, exists := r.byPair[key]; exists {
		return domain.ErrAlreadyMember
	}
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	stored := *member
	r.byID[member.ID] = &stored
	r.byPair[key] = member.ID
	return nil
}

func (r *GroupMemberRepository) GetByGroupAndUser(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[pairKey(groupID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *GroupMemberRepository) Update(ctx context.Context, member *domain.GroupMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[member.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *member
	r.byID[member.ID] = &stored
	return nil
}

func (r *GroupMemberRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byPair, pairKey(m.GroupID, m.UserID))
	delete(r.byID, id)
	return nil
}

func (r *GroupMemberRepository) ListActiveByGroup(ctx context.Context, groupID string) ([]*domain.GroupMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.GroupMember
	for _, m := range r.byID {
		if m.GroupID != groupID || m.IsKicked {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *GroupMemberRepository) listGroupIDsByUser(userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, m := range r.byID {
		if m.UserID == userID && !m.IsKicked {
			out = append(out, m.GroupID)
		}
	}
	return out, nil
}
