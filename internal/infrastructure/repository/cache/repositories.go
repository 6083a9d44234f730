package cache

import (
	"context"

	"github.com/riskibarqy/sunday-league/internal/domain/member"
	basecache "github.com/riskibarqy/sunday-league/internal/platform/cache"
)

// MemberRepository caches id and group reads; every write drops the affected keys.
type MemberRepository struct {
	next  member.Repository
	cache *basecache.Store
}

func NewMemberRepository(next member.Repository, cache *basecache.Store) *MemberRepository {
	return &MemberRepository{next: next, cache: cache}
}

func (r *MemberRepository) GetByID(ctx context.Context, memberID string) (member.Member, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, memberIDKey(memberID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, memberID)
		if err != nil {
			return nil, err
		}
		return cachedMemberByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return member.Member{}, false, err
	}

	cached, _ := v.(cachedMemberByID)
	return cloneMember(cached.value), cached.exists, nil
}

func (r *MemberRepository) ListByGroup(ctx context.Context, groupID string) ([]member.Member, error) {
	v, err := r.cache.GetOrLoad(ctx, memberGroupKey(groupID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]member.Member)
	out := make([]member.Member, 0, len(items))
	for _, item := range items {
		out = append(out, cloneMember(item))
	}
	return out, nil
}

func (r *MemberRepository) FindByLegacyID(ctx context.Context, groupID, legacyID string) (member.Member, bool, error) {
	return r.next.FindByLegacyID(ctx, groupID, legacyID)
}

func (r *MemberRepository) FindByUserID(ctx context.Context, groupID, userID string) (member.Member, bool, error) {
	return r.next.FindByUserID(ctx, groupID, userID)
}

func (r *MemberRepository) FindByNormalizedName(ctx context.Context, groupID, name string) ([]member.Member, error) {
	return r.next.FindByNormalizedName(ctx, groupID, name)
}

func (r *MemberRepository) Create(ctx context.Context, item member.Member) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, memberIDKey(item.ID), memberGroupKey(item.GroupID))
	return nil
}

func (r *MemberRepository) Update(ctx context.Context, item member.Member) error {
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, memberIDKey(item.ID), memberGroupKey(item.GroupID))
	return nil
}

func (r *MemberRepository) AddLegacyIDs(ctx context.Context, memberID string, legacyIDs []string) error {
	if err := r.next.AddLegacyIDs(ctx, memberID, legacyIDs); err != nil {
		return err
	}
	r.cache.Delete(ctx, memberIDKey(memberID))
	r.cache.DeletePrefix(ctx, "member:group:")
	return nil
}

type cachedMemberByID struct {
	value  member.Member
	exists bool
}

func memberIDKey(memberID string) string {
	return "member:id:" + memberID
}

func memberGroupKey(groupID string) string {
	return "member:group:" + groupID
}

func cloneMember(item member.Member) member.Member {
	copied := item
	copied.LegacyIDs = append([]string(nil), item.LegacyIDs...)
	return copied
}
