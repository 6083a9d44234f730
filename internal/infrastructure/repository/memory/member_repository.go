package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/sunday-league/internal/domain/member"
)

type MemberRepository struct {
	mu    sync.RWMutex
	items map[string]member.Member
}

func NewMemberRepository(seed []member.Member) *MemberRepository {
	items := make(map[string]member.Member, len(seed))
	for _, item := range seed {
		items[item.ID] = cloneMember(item)
	}
	return &MemberRepository{items: items}
}

func (r *MemberRepository) GetByID(_ context.Context, memberID string) (member.Member, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[memberID]
	if !ok {
		return member.Member{}, false, nil
	}
	return cloneMember(item), true, nil
}

func (r *MemberRepository) ListByGroup(_ context.Context, groupID string) ([]member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(item member.Member) bool { return item.GroupID == groupID }), nil
}

func (r *MemberRepository) FindByLegacyID(_ context.Context, groupID, legacyID string) (member.Member, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := r.filter(func(item member.Member) bool {
		return item.GroupID == groupID && item.HasLegacyID(legacyID)
	})
	if len(found) == 0 {
		return member.Member{}, false, nil
	}
	return found[0], true, nil
}

func (r *MemberRepository) FindByUserID(_ context.Context, groupID, userID string) (member.Member, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := r.filter(func(item member.Member) bool {
		return item.GroupID == groupID && userID != "" && item.UserID == userID
	})
	if len(found) == 0 {
		return member.Member{}, false, nil
	}
	return found[0], true, nil
}

func (r *MemberRepository) FindByNormalizedName(_ context.Context, groupID, name string) ([]member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	normalized := member.NormalizeName(name)
	return r.filter(func(item member.Member) bool {
		return item.GroupID == groupID && member.NormalizeName(item.DisplayName) == normalized
	}), nil
}

func (r *MemberRepository) Create(_ context.Context, item member.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("member already exists: %s", item.ID)
	}
	r.items[item.ID] = cloneMember(item)
	return nil
}

func (r *MemberRepository) Update(_ context.Context, item member.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return fmt.Errorf("member not found: %s", item.ID)
	}
	r.items[item.ID] = cloneMember(item)
	return nil
}

func (r *MemberRepository) AddLegacyIDs(_ context.Context, memberID string, legacyIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[memberID]
	if !exists {
		return fmt.Errorf("member not found: %s", memberID)
	}
	item = cloneMember(item)
	for _, legacyID := range legacyIDs {
		if legacyID != "" && !item.HasLegacyID(legacyID) {
			item.LegacyIDs = append(item.LegacyIDs, legacyID)
		}
	}
	r.items[memberID] = item
	return nil
}

// filter expects the caller to hold the read lock. Results are ordered by id.
func (r *MemberRepository) filter(keep func(member.Member) bool) []member.Member {
	out := make([]member.Member, 0)
	for _, item := range r.items {
		if keep(item) {
			out = append(out, cloneMember(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneMember(item member.Member) member.Member {
	copied := item
	copied.LegacyIDs = append([]string(nil), item.LegacyIDs...)
	return copied
}
