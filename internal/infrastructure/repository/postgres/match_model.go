package postgres

import (
	"database/sql"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/sunday-league/internal/domain/match"
)

const matchColumns = "id, group_id, season, match_date, team1, team2, goals_team1, goals_team2, mvp_member_id, voting_status, voting_opens_at, voting_closes_at, voting_calculated_at, legacy_match_id, created_at"

type matchTableModel struct {
	ID                 string         `db:"id"`
	GroupID            string         `db:"group_id"`
	Season             int            `db:"season"`
	MatchDate          time.Time      `db:"match_date"`
	Team1              []byte         `db:"team1"`
	Team2              []byte         `db:"team2"`
	GoalsTeam1         int            `db:"goals_team1"`
	GoalsTeam2         int            `db:"goals_team2"`
	MvpMemberID        sql.NullString `db:"mvp_member_id"`
	VotingStatus       string         `db:"voting_status"`
	VotingOpensAt      time.Time      `db:"voting_opens_at"`
	VotingClosesAt     time.Time      `db:"voting_closes_at"`
	VotingCalculatedAt sql.NullTime   `db:"voting_calculated_at"`
	LegacyMatchID      sql.NullString `db:"legacy_match_id"`
	CreatedAt          time.Time      `db:"created_at"`
}

type matchInsertModel struct {
	ID                 string     `db:"id"`
	GroupID            string     `db:"group_id"`
	Season             int        `db:"season"`
	MatchDate          time.Time  `db:"match_date"`
	Team1              string     `db:"team1"`
	Team2              string     `db:"team2"`
	GoalsTeam1         int        `db:"goals_team1"`
	GoalsTeam2         int        `db:"goals_team2"`
	MvpMemberID        *string    `db:"mvp_member_id"`
	VotingStatus       string     `db:"voting_status"`
	VotingOpensAt      time.Time  `db:"voting_opens_at"`
	VotingClosesAt     time.Time  `db:"voting_closes_at"`
	VotingCalculatedAt *time.Time `db:"voting_calculated_at"`
	LegacyMatchID      *string    `db:"legacy_match_id"`
	CreatedAt          time.Time  `db:"created_at"`
}

type ballotTableModel struct {
	MatchID       string `db:"match_id"`
	VoterMemberID string `db:"voter_member_id"`
	VotedMemberID string `db:"voted_member_id"`
}

type entryPayload struct {
	MemberID string `json:"member_id"`
	Position string `json:"position"`
	Goals    int    `json:"goals"`
	Assists  int    `json:"assists"`
	OwnGoals int    `json:"own_goals"`
}

func encodeEntries(entries []match.Entry) (string, error) {
	payload := make([]entryPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, entryPayload{
			MemberID: entry.MemberID,
			Position: string(entry.Position),
			Goals:    entry.Goals,
			Assists:  entry.Assists,
			OwnGoals: entry.OwnGoals,
		})
	}
	raw, err := jsoniter.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeEntries(raw []byte) ([]match.Entry, error) {
	if len(raw) == 0 {
		return []match.Entry{}, nil
	}
	var payload []entryPayload
	if err := jsoniter.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	out := make([]match.Entry, 0, len(payload))
	for _, item := range payload {
		out = append(out, match.Entry{
			MemberID: item.MemberID,
			Position: match.Position(item.Position),
			Goals:    item.Goals,
			Assists:  item.Assists,
			OwnGoals: item.OwnGoals,
		})
	}
	return out, nil
}

func matchInsertFromDomain(item match.Match) (matchInsertModel, error) {
	team1, err := encodeEntries(item.Team1)
	if err != nil {
		return matchInsertModel{}, fmt.Errorf("encode team1: %w", err)
	}
	team2, err := encodeEntries(item.Team2)
	if err != nil {
		return matchInsertModel{}, fmt.Errorf("encode team2: %w", err)
	}
	return matchInsertModel{
		ID:                 item.ID,
		GroupID:            item.GroupID,
		Season:             item.Season,
		MatchDate:          item.Date.UTC(),
		Team1:              team1,
		Team2:              team2,
		GoalsTeam1:         item.GoalsTeam1,
		GoalsTeam2:         item.GoalsTeam2,
		MvpMemberID:        optionalString(item.MvpMemberID),
		VotingStatus:       string(item.Voting.Status),
		VotingOpensAt:      item.Voting.OpensAt.UTC(),
		VotingClosesAt:     item.Voting.ClosesAt.UTC(),
		VotingCalculatedAt: optionalTime(item.Voting.CalculatedAt),
		LegacyMatchID:      optionalString(item.LegacyMatchID),
		CreatedAt:          item.CreatedAt.UTC(),
	}, nil
}

func matchFromRow(row matchTableModel) (match.Match, error) {
	team1, err := decodeEntries(row.Team1)
	if err != nil {
		return match.Match{}, fmt.Errorf("decode team1 match=%s: %w", row.ID, err)
	}
	team2, err := decodeEntries(row.Team2)
	if err != nil {
		return match.Match{}, fmt.Errorf("decode team2 match=%s: %w", row.ID, err)
	}
	return match.Match{
		ID:          row.ID,
		GroupID:     row.GroupID,
		Season:      row.Season,
		Date:        row.MatchDate.UTC(),
		Team1:       team1,
		Team2:       team2,
		GoalsTeam1:  row.GoalsTeam1,
		GoalsTeam2:  row.GoalsTeam2,
		MvpMemberID: row.MvpMemberID.String,
		Voting: match.Voting{
			Status:       match.VotingStatus(row.VotingStatus),
			OpensAt:      row.VotingOpensAt.UTC(),
			ClosesAt:     row.VotingClosesAt.UTC(),
			CalculatedAt: nullTimePtr(row.VotingCalculatedAt),
		},
		Ballots:       map[string]string{},
		LegacyMatchID: row.LegacyMatchID.String,
		CreatedAt:     row.CreatedAt.UTC(),
	}, nil
}
