package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) GetSeasonStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonStats")
	defer span.End()

	groupID := strings.TrimSpace(r.PathValue("groupID"))
	season := strings.TrimSpace(r.PathValue("season"))

	result, err := h.seasonStatsService.GetSeasonStats(ctx, groupID, season)
	if err != nil {
		h.logger.WarnContext(ctx, "get season stats failed", "group_id", groupID, "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
