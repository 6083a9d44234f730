package member

import "context"

// Repository describes canonical identity persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, memberID string) (Member, bool, error)
	ListByGroup(ctx context.Context, groupID string) ([]Member, error)
	FindByLegacyID(ctx context.Context, groupID, legacyID string) (Member, bool, error)
	FindByUserID(ctx context.Context, groupID, userID string) (Member, bool, error)
	FindByNormalizedName(ctx context.Context, groupID, name string) ([]Member, error)
	Create(ctx context.Context, item Member) error
	Update(ctx context.Context, item Member) error
	AddLegacyIDs(ctx context.Context, memberID string, legacyIDs []string) error
}
