package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/sunday-league/internal/domain/member"
	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
	"github.com/sourcegraph/conc"
)

type SeasonStatsRow struct {
	seasonstats.Record
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

type SeasonStatsResult struct {
	GroupID string           `json:"group_id"`
	Season  string           `json:"season"`
	Rows    []SeasonStatsRow `json:"rows"`
}

type SeasonStatsService struct {
	statsRepo  seasonstats.Repository
	memberRepo member.Repository
}

func NewSeasonStatsService(statsRepo seasonstats.Repository, memberRepo member.Repository) *SeasonStatsService {
	return &SeasonStatsService{statsRepo: statsRepo, memberRepo: memberRepo}
}

// GetSeasonStats returns per-member records for a year, or summed across seasons for "all".
func (s *SeasonStatsService) GetSeasonStats(ctx context.Context, groupID, season string) (SeasonStatsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonStatsService.GetSeasonStats")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	season = strings.ToLower(strings.TrimSpace(season))
	if groupID == "" {
		return SeasonStatsResult{}, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	year, err := seasonstats.ParseSeason(season)
	if err != nil {
		return SeasonStatsResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var (
		records    []seasonstats.Record
		members    []member.Member
		statsErr   error
		membersErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		if year == 0 {
			all, err := s.statsRepo.ListByGroup(ctx, groupID)
			if err != nil {
				statsErr = err
				return
			}
			records = seasonstats.SumAcrossSeasons(groupID, all)
			return
		}
		records, statsErr = s.statsRepo.ListByGroupSeason(ctx, groupID, year)
	})
	wg.Go(func() {
		members, membersErr = s.memberRepo.ListByGroup(ctx, groupID)
	})
	wg.Wait()

	if statsErr != nil {
		return SeasonStatsResult{}, fmt.Errorf("list season stats group=%s season=%s: %w", groupID, season, statsErr)
	}
	if membersErr != nil {
		return SeasonStatsResult{}, fmt.Errorf("list members group=%s: %w", groupID, membersErr)
	}

	byID := make(map[string]member.Member, len(members))
	for _, item := range members {
		byID[item.ID] = item
	}

	seasonstats.SortRecords(records)
	rows := make([]SeasonStatsRow, 0, len(records))
	for _, rec := range records {
		row := SeasonStatsRow{Record: rec}
		if item, ok := byID[rec.MemberID]; ok {
			row.DisplayName = item.DisplayName
			row.IsGuest = item.IsGuest
		}
		rows = append(rows, row)
	}

	return SeasonStatsResult{GroupID: groupID, Season: season, Rows: rows}, nil
}
