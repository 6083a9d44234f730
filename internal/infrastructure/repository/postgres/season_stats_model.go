package postgres

import (
	"database/sql"

	"github.com/riskibarqy/sunday-league/internal/domain/seasonstats"
)

const seasonStatsColumns = `id, group_id, season, member_id,
field_matches, field_goals, field_assists, field_own_goals, field_won, field_draw, field_lost, field_mvps,
gk_matches, gk_goals_conceded, gk_clean_sheets, gk_goals, gk_assists, gk_own_goals, gk_won, gk_draw, gk_lost, gk_mvps`

// Counters are nullable; an absent value reads as zero.
type seasonStatsTableModel struct {
	ID       string `db:"id"`
	GroupID  string `db:"group_id"`
	Season   int    `db:"season"`
	MemberID string `db:"member_id"`

	FieldMatches  sql.NullInt64 `db:"field_matches"`
	FieldGoals    sql.NullInt64 `db:"field_goals"`
	FieldAssists  sql.NullInt64 `db:"field_assists"`
	FieldOwnGoals sql.NullInt64 `db:"field_own_goals"`
	FieldWon      sql.NullInt64 `db:"field_won"`
	FieldDraw     sql.NullInt64 `db:"field_draw"`
	FieldLost     sql.NullInt64 `db:"field_lost"`
	FieldMvps     sql.NullInt64 `db:"field_mvps"`

	GKMatches       sql.NullInt64 `db:"gk_matches"`
	GKGoalsConceded sql.NullInt64 `db:"gk_goals_conceded"`
	GKCleanSheets   sql.NullInt64 `db:"gk_clean_sheets"`
	GKGoals         sql.NullInt64 `db:"gk_goals"`
	GKAssists       sql.NullInt64 `db:"gk_assists"`
	GKOwnGoals      sql.NullInt64 `db:"gk_own_goals"`
	GKWon           sql.NullInt64 `db:"gk_won"`
	GKDraw          sql.NullInt64 `db:"gk_draw"`
	GKLost          sql.NullInt64 `db:"gk_lost"`
	GKMvps          sql.NullInt64 `db:"gk_mvps"`
}

type seasonStatsInsertModel struct {
	ID       string `db:"id"`
	GroupID  string `db:"group_id"`
	Season   int    `db:"season"`
	MemberID string `db:"member_id"`

	FieldMatches  int `db:"field_matches"`
	FieldGoals    int `db:"field_goals"`
	FieldAssists  int `db:"field_assists"`
	FieldOwnGoals int `db:"field_own_goals"`
	FieldWon      int `db:"field_won"`
	FieldDraw     int `db:"field_draw"`
	FieldLost     int `db:"field_lost"`
	FieldMvps     int `db:"field_mvps"`

	GKMatches       int `db:"gk_matches"`
	GKGoalsConceded int `db:"gk_goals_conceded"`
	GKCleanSheets   int `db:"gk_clean_sheets"`
	GKGoals         int `db:"gk_goals"`
	GKAssists       int `db:"gk_assists"`
	GKOwnGoals      int `db:"gk_own_goals"`
	GKWon           int `db:"gk_won"`
	GKDraw          int `db:"gk_draw"`
	GKLost          int `db:"gk_lost"`
	GKMvps          int `db:"gk_mvps"`
}

func seasonStatsFromRow(row seasonStatsTableModel) seasonstats.Record {
	n := func(v sql.NullInt64) int {
		if !v.Valid {
			return 0
		}
		return int(v.Int64)
	}
	return seasonstats.Record{
		ID:       row.ID,
		GroupID:  row.GroupID,
		Season:   row.Season,
		MemberID: row.MemberID,
		Field: seasonstats.FieldStats{
			Matches:  n(row.FieldMatches),
			Goals:    n(row.FieldGoals),
			Assists:  n(row.FieldAssists),
			OwnGoals: n(row.FieldOwnGoals),
			Won:      n(row.FieldWon),
			Draw:     n(row.FieldDraw),
			Lost:     n(row.FieldLost),
			Mvps:     n(row.FieldMvps),
		},
		Goalkeeper: seasonstats.GoalkeeperStats{
			Matches:       n(row.GKMatches),
			GoalsConceded: n(row.GKGoalsConceded),
			CleanSheets:   n(row.GKCleanSheets),
			Goals:         n(row.GKGoals),
			Assists:       n(row.GKAssists),
			OwnGoals:      n(row.GKOwnGoals),
			Won:           n(row.GKWon),
			Draw:          n(row.GKDraw),
			Lost:          n(row.GKLost),
			Mvps:          n(row.GKMvps),
		},
	}
}

func seasonStatsInsertFromDomain(rec seasonstats.Record) seasonStatsInsertModel {
	return seasonStatsInsertModel{
		ID:              rec.Key().RecordID(),
		GroupID:         rec.GroupID,
		Season:          rec.Season,
		MemberID:        rec.MemberID,
		FieldMatches:    rec.Field.Matches,
		FieldGoals:      rec.Field.Goals,
		FieldAssists:    rec.Field.Assists,
		FieldOwnGoals:   rec.Field.OwnGoals,
		FieldWon:        rec.Field.Won,
		FieldDraw:       rec.Field.Draw,
		FieldLost:       rec.Field.Lost,
		FieldMvps:       rec.Field.Mvps,
		GKMatches:       rec.Goalkeeper.Matches,
		GKGoalsConceded: rec.Goalkeeper.GoalsConceded,
		GKCleanSheets:   rec.Goalkeeper.CleanSheets,
		GKGoals:         rec.Goalkeeper.Goals,
		GKAssists:       rec.Goalkeeper.Assists,
		GKOwnGoals:      rec.Goalkeeper.OwnGoals,
		GKWon:           rec.Goalkeeper.Won,
		GKDraw:          rec.Goalkeeper.Draw,
		GKLost:          rec.Goalkeeper.Lost,
		GKMvps:          rec.Goalkeeper.Mvps,
	}
}

type counterDelta struct {
	column string
	value  int
}

// incrementColumns lists the non-zero counters a delta touches in block.
func incrementColumns(block seasonstats.Block, delta seasonstats.Delta) []counterDelta {
	var cols []counterDelta
	add := func(column string, value int) {
		if value != 0 {
			cols = append(cols, counterDelta{column: column, value: value})
		}
	}
	if block == seasonstats.BlockGoalkeeper {
		add("gk_matches", delta.Matches)
		add("gk_goals_conceded", delta.GoalsConceded)
		add("gk_clean_sheets", delta.CleanSheets)
		add("gk_goals", delta.Goals)
		add("gk_assists", delta.Assists)
		add("gk_own_goals", delta.OwnGoals)
		add("gk_won", delta.Won)
		add("gk_draw", delta.Draw)
		add("gk_lost", delta.Lost)
		add("gk_mvps", delta.Mvps)
		return cols
	}
	add("field_matches", delta.Matches)
	add("field_goals", delta.Goals)
	add("field_assists", delta.Assists)
	add("field_own_goals", delta.OwnGoals)
	add("field_won", delta.Won)
	add("field_draw", delta.Draw)
	add("field_lost", delta.Lost)
	add("field_mvps", delta.Mvps)
	return cols
}
