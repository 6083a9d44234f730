package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/sunday-league/internal/domain/invite"
)

type InviteRepository struct {
	mu    sync.RWMutex
	items map[string]invite.Invite
}

func NewInviteRepository() *InviteRepository {
	return &InviteRepository{items: make(map[string]invite.Invite)}
}

func (r *InviteRepository) GetByID(_ context.Context, inviteID string) (invite.Invite, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[inviteID]
	return item, ok, nil
}

func (r *InviteRepository) ListByGroup(_ context.Context, groupID string) ([]invite.Invite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]invite.Invite, 0)
	for _, item := range r.items {
		if item.GroupID == groupID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *InviteRepository) Create(_ context.Context, item invite.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("invite already exists: %s", item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *InviteRepository) Update(_ context.Context, item invite.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return fmt.Errorf("invite not found: %s", item.ID)
	}
	r.items[item.ID] = item
	return nil
}
