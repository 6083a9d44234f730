package memory

import (
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/member"
)

const DemoGroupID = "grp-sunday-league"

func SeedMembers() []member.Member {
	createdAt := time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)
	return []member.Member{
		{ID: "mbr-andi", GroupID: DemoGroupID, UserID: "usr-andi", DisplayName: "Andi", Role: member.RoleAdmin, CreatedAt: createdAt, UpdatedAt: createdAt},
		{ID: "mbr-budi", GroupID: DemoGroupID, UserID: "usr-budi", DisplayName: "Budi", Role: member.RoleMember, CreatedAt: createdAt, UpdatedAt: createdAt},
		{ID: "mbr-cahyo", GroupID: DemoGroupID, DisplayName: "Cahyo", IsGuest: true, Role: member.RoleMember, CreatedAt: createdAt, UpdatedAt: createdAt},
		{ID: "mbr-dimas", GroupID: DemoGroupID, DisplayName: "Dimas", IsGuest: true, Role: member.RoleMember, CreatedAt: createdAt, UpdatedAt: createdAt},
	}
}
