package invite

import "context"

type Repository interface {
	GetByID(ctx context.Context, inviteID string) (Invite, bool, error)
	ListByGroup(ctx context.Context, groupID string) ([]Invite, error)
	Create(ctx context.Context, item Invite) error
	Update(ctx context.Context, item Invite) error
}
