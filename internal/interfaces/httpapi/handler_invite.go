package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/sunday-league/internal/usecase"
)

func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateInvite")
	defer span.End()

	groupID := strings.TrimSpace(r.PathValue("groupID"))
	inviter, err := h.actingMember(ctx, groupID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createInviteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.inviteService.CreateInvite(ctx, usecase.CreateInviteInput{
		GroupID:   groupID,
		MemberID:  req.MemberID,
		Email:     req.Email,
		InvitedBy: inviter.ID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create invite failed", "group_id", groupID, "member_id", req.MemberID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, inviteToDTO(item))
}

func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptInvite")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	inviteID := strings.TrimSpace(r.PathValue("inviteID"))
	item, err := h.inviteService.AcceptInvite(ctx, inviteID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "accept invite failed", "invite_id", inviteID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, inviteToDTO(item))
}

func (h *Handler) RejectInvite(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectInvite")
	defer span.End()

	inviteID := strings.TrimSpace(r.PathValue("inviteID"))
	item, err := h.inviteService.RejectInvite(ctx, inviteID)
	if err != nil {
		h.logger.WarnContext(ctx, "reject invite failed", "invite_id", inviteID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, inviteToDTO(item))
}
