package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/sunday-league/internal/usecase"
)

func (h *Handler) RecordMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordMatch")
	defer span.End()

	groupID := strings.TrimSpace(r.PathValue("groupID"))
	recorder, err := h.actingMember(ctx, groupID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req recordMatchRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	normalizePositions(req.Team1)
	normalizePositions(req.Team2)
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	date, err := parseMatchDate(req.Date)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.RecordMatch(ctx, usecase.RecordMatchInput{
		GroupID: groupID,
		Date:    date,
		Team1:   toMatchEntries(req.Team1),
		Team2:   toMatchEntries(req.Team2),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record match failed", "group_id", groupID, "recorded_by", recorder.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(item))
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	groupID := strings.TrimSpace(r.PathValue("groupID"))
	season := strings.TrimSpace(r.URL.Query().Get("season"))

	items, err := h.matchService.ListMatches(ctx, groupID, season)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "group_id", groupID, "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	item, err := h.matchService.GetMatch(ctx, matchID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CastVote")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	var req castVoteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.GetMatch(ctx, matchID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	voter, err := h.actingMember(ctx, item.GroupID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	err = h.votingService.CastVote(ctx, usecase.CastVoteInput{
		MatchID:       matchID,
		VoterMemberID: voter.ID,
		VotedMemberID: strings.TrimSpace(req.VotedMemberID),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "cast vote failed", "match_id", matchID, "voter_id", voter.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"match_id":        matchID,
		"voter_member_id": voter.ID,
		"voted_member_id": strings.TrimSpace(req.VotedMemberID),
	})
}
