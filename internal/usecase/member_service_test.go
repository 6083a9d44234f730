package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/sunday-league/internal/domain/invite"
	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/domain/notification"
	"github.com/riskibarqy/sunday-league/internal/infrastructure/repository/memory"
	invitemock "github.com/riskibarqy/sunday-league/internal/mocks/domain/invite"
	membermock "github.com/riskibarqy/sunday-league/internal/mocks/domain/member"
	notificationmock "github.com/riskibarqy/sunday-league/internal/mocks/domain/notification"
	"github.com/riskibarqy/sunday-league/internal/platform/id"
	"github.com/stretchr/testify/mock"
)

func TestMemberService_AddGuestAndRename(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemberFixture()
	service := NewMemberService(repo, id.NewSequenceGenerator("mbr-guest"))

	guest, err := service.AddGuest(ctx, AddGuestInput{GroupID: testGroupID, DisplayName: "  Eko  "})
	if err != nil {
		t.Fatalf("add guest: %v", err)
	}
	if guest.ID != "mbr-guest-1" || guest.DisplayName != "Eko" || !guest.IsGuest || guest.Role != member.RoleMember {
		t.Fatalf("unexpected guest: %+v", guest)
	}

	renamed, err := service.Rename(ctx, guest.ID, "Eko P.")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.DisplayName != "Eko P." {
		t.Fatalf("unexpected display name: %s", renamed.DisplayName)
	}

	if _, err := service.AddGuest(ctx, AddGuestInput{GroupID: testGroupID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := service.Rename(ctx, "mbr-missing", "X"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemberService_LinkUser_RejectsUserLinkedElsewhere(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service := NewMemberService(newMemberFixture(), nil)

	if _, err := service.LinkUser(ctx, "mbr-cahyo", "usr-andi"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	linked, err := service.LinkUser(ctx, "mbr-cahyo", "usr-cahyo")
	if err != nil {
		t.Fatalf("link user: %v", err)
	}
	if linked.UserID != "usr-cahyo" || linked.IsGuest {
		t.Fatalf("unexpected linked member: %+v", linked)
	}

	unlinked, err := service.UnlinkUser(ctx, "mbr-cahyo")
	if err != nil {
		t.Fatalf("unlink user: %v", err)
	}
	if unlinked.UserID != "" || !unlinked.IsGuest {
		t.Fatalf("unexpected unlinked member: %+v", unlinked)
	}
}

func TestMemberService_ListMembers_UsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := membermock.NewRepository(t)
	expected := []member.Member{{ID: "mbr-andi", GroupID: testGroupID, DisplayName: "Andi"}}

	repo.
		On("ListByGroup", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), testGroupID).
		Return(expected, nil).
		Once()

	got, err := NewMemberService(repo, nil).ListMembers(ctx, testGroupID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(got) != 1 || got[0].ID != "mbr-andi" {
		t.Fatalf("unexpected members: %+v", got)
	}
}

func TestInviteService_CreateAcceptFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	members := newMemberFixture()
	invites := memory.NewInviteRepository()
	publisher := notificationmock.NewPublisher(t)

	publisher.
		On("Publish", ctx, notification.Event{Type: notification.EventInviteReceived, InviteID: "inv-1"}).
		Return(nil).
		Once()

	service := NewInviteService(invites, members, NewMemberService(members, nil), publisher, id.NewSequenceGenerator("inv"), nil)
	created, err := service.CreateInvite(ctx, CreateInviteInput{
		GroupID:   testGroupID,
		MemberID:  "mbr-dimas",
		Email:     "Dimas@Example.com",
		InvitedBy: "mbr-andi",
	})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if created.Status != invite.StatusPending || created.Email != "dimas@example.com" {
		t.Fatalf("unexpected invite: %+v", created)
	}

	accepted, err := service.AcceptInvite(ctx, created.ID, "usr-dimas")
	if err != nil {
		t.Fatalf("accept invite: %v", err)
	}
	if accepted.Status != invite.StatusAccepted || accepted.RespondedAt == nil {
		t.Fatalf("unexpected accepted invite: %+v", accepted)
	}
	dimas, _, _ := members.GetByID(ctx, "mbr-dimas")
	if dimas.UserID != "usr-dimas" {
		t.Fatalf("accept must link the user, got=%+v", dimas)
	}

	if _, err := service.RejectInvite(ctx, created.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for consumed invite, got %v", err)
	}
}

func TestInviteService_CreateInvite_RejectsLinkedMember(t *testing.T) {
	t.Parallel()

	members := newMemberFixture()
	service := NewInviteService(memory.NewInviteRepository(), members, NewMemberService(members, nil), nil, nil, nil)

	_, err := service.CreateInvite(context.Background(), CreateInviteInput{
		GroupID:  testGroupID,
		MemberID: "mbr-andi",
		Email:    "andi@example.com",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMemberService_MemberForUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service := NewMemberService(newMemberFixture(), nil)

	item, err := service.MemberForUser(ctx, testGroupID, "usr-budi")
	if err != nil {
		t.Fatalf("member for user: %v", err)
	}
	if item.ID != "mbr-budi" {
		t.Fatalf("unexpected member: %s", item.ID)
	}

	if _, err := service.MemberForUser(ctx, testGroupID, "usr-stranger"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
	if _, err := service.MemberForUser(ctx, "grp-other", "usr-budi"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for foreign group, got %v", err)
	}
}

func TestInviteService_RejectInvite_UsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	invites := invitemock.NewRepository(t)
	respondedAt := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	pending := invite.Invite{
		ID:       "inv-7",
		GroupID:  testGroupID,
		MemberID: "mbr-dimas",
		Email:    "dimas@example.com",
		Status:   invite.StatusPending,
	}

	invites.On("GetByID", ctx, "inv-7").Return(pending, true, nil).Once()
	invites.On("GetByID", ctx, "inv-404").Return(invite.Invite{}, false, nil).Once()
	invites.
		On("Update", ctx, mock.MatchedBy(func(item invite.Invite) bool {
			return item.ID == "inv-7" &&
				item.Status == invite.StatusRejected &&
				item.RespondedAt != nil && item.RespondedAt.Equal(respondedAt)
		})).
		Return(nil).
		Once()

	members := newMemberFixture()
	service := NewInviteService(invites, members, NewMemberService(members, nil), nil, nil, nil)
	service.now = func() time.Time { return respondedAt }

	rejected, err := service.RejectInvite(ctx, " inv-7 ")
	if err != nil {
		t.Fatalf("reject invite: %v", err)
	}
	if rejected.Status != invite.StatusRejected {
		t.Fatalf("unexpected rejected invite: %+v", rejected)
	}
	if _, err := service.RejectInvite(ctx, "inv-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.RejectInvite(ctx, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank id, got %v", err)
	}
}
