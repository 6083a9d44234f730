package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/usecase"
)

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMembers")
	defer span.End()

	groupID := strings.TrimSpace(r.PathValue("groupID"))
	items, err := h.memberService.ListMembers(ctx, groupID)
	if err != nil {
		h.logger.WarnContext(ctx, "list members failed", "group_id", groupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]memberDTO, 0, len(items))
	for _, item := range items {
		out = append(out, memberToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) AddGuestMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddGuestMember")
	defer span.End()

	groupID := strings.TrimSpace(r.PathValue("groupID"))
	if _, err := h.actingMember(ctx, groupID); err != nil {
		writeError(ctx, w, err)
		return
	}

	var req addGuestRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.memberService.AddGuest(ctx, usecase.AddGuestInput{
		GroupID:     groupID,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "add guest failed", "group_id", groupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, memberToDTO(item))
}

func (h *Handler) RenameMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RenameMember")
	defer span.End()

	target, ok := h.loadManagedMember(w, r)
	if !ok {
		return
	}

	var req renameMemberRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.memberService.Rename(ctx, target.ID, req.DisplayName)
	if err != nil {
		h.logger.WarnContext(ctx, "rename member failed", "member_id", target.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, memberToDTO(item))
}

func (h *Handler) LinkMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LinkMember")
	defer span.End()

	target, ok := h.loadManagedMember(w, r)
	if !ok {
		return
	}

	var req linkMemberRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.memberService.LinkUser(ctx, target.ID, req.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "link member failed", "member_id", target.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, memberToDTO(item))
}

func (h *Handler) UnlinkMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UnlinkMember")
	defer span.End()

	target, ok := h.loadManagedMember(w, r)
	if !ok {
		return
	}

	item, err := h.memberService.UnlinkUser(ctx, target.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "unlink member failed", "member_id", target.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, memberToDTO(item))
}

// loadManagedMember loads the path member and checks the caller belongs to its group.
func (h *Handler) loadManagedMember(w http.ResponseWriter, r *http.Request) (member.Member, bool) {
	ctx := r.Context()

	target, err := h.memberService.GetMember(ctx, r.PathValue("memberID"))
	if err != nil {
		writeError(ctx, w, err)
		return member.Member{}, false
	}
	if _, err := h.actingMember(ctx, target.GroupID); err != nil {
		writeError(ctx, w, err)
		return member.Member{}, false
	}
	return target, true
}
