package seasonstats

import (
	"fmt"
	"strconv"
)

const AllSeasonsLabel = "all"

type FieldStats struct {
	Matches  int `json:"matches"`
	Goals    int `json:"goals"`
	Assists  int `json:"assists"`
	OwnGoals int `json:"own_goals"`
	Won      int `json:"won"`
	Draw     int `json:"draw"`
	Lost     int `json:"lost"`
	Mvps     int `json:"mvps"`
}

type GoalkeeperStats struct {
	Matches       int `json:"matches"`
	GoalsConceded int `json:"goals_conceded"`
	CleanSheets   int `json:"clean_sheets"`
	Goals         int `json:"goals"`
	Assists       int `json:"assists"`
	OwnGoals      int `json:"own_goals"`
	Won           int `json:"won"`
	Draw          int `json:"draw"`
	Lost          int `json:"lost"`
	Mvps          int `json:"mvps"`
}

type Key struct {
	GroupID  string
	Season   int
	MemberID string
}

// RecordID is the persisted composite id: {groupId}_{season}_{memberId}.
func (k Key) RecordID() string {
	return fmt.Sprintf("%s_%d_%s", k.GroupID, k.Season, k.MemberID)
}

// AllSeasonsRecordID identifies the synthetic cross-season aggregate.
func AllSeasonsRecordID(groupID, memberID string) string {
	return groupID + "_" + AllSeasonsLabel + "_" + memberID
}

// ParseSeason accepts a calendar year or "all" (returned as 0).
func ParseSeason(raw string) (int, error) {
	if raw == AllSeasonsLabel {
		return 0, nil
	}
	season, err := strconv.Atoi(raw)
	if err != nil || season < 1900 || season > 9999 {
		return 0, fmt.Errorf("invalid season %q", raw)
	}
	return season, nil
}

type Record struct {
	ID         string          `json:"id"`
	GroupID    string          `json:"group_id"`
	Season     int             `json:"season"`
	MemberID   string          `json:"member_id"`
	Field      FieldStats      `json:"field"`
	Goalkeeper GoalkeeperStats `json:"goalkeeper"`
}

func NewRecord(key Key) Record {
	return Record{
		ID:       key.RecordID(),
		GroupID:  key.GroupID,
		Season:   key.Season,
		MemberID: key.MemberID,
	}
}

func (r Record) Key() Key {
	return Key{GroupID: r.GroupID, Season: r.Season, MemberID: r.MemberID}
}

type Block string

const (
	BlockField      Block = "field"
	BlockGoalkeeper Block = "goalkeeper"
)

// Delta is an additive change to one block. Fields not present on the field block are ignored there.
type Delta struct {
	Matches       int
	Goals         int
	Assists       int
	OwnGoals      int
	Won           int
	Draw          int
	Lost          int
	Mvps          int
	GoalsConceded int
	CleanSheets   int
}

func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Apply increments the chosen block by delta.
func (r *Record) Apply(block Block, delta Delta) {
	switch block {
	case BlockGoalkeeper:
		gk := &r.Goalkeeper
		gk.Matches += delta.Matches
		gk.GoalsConceded += delta.GoalsConceded
		gk.CleanSheets += delta.CleanSheets
		gk.Goals += delta.Goals
		gk.Assists += delta.Assists
		gk.OwnGoals += delta.OwnGoals
		gk.Won += delta.Won
		gk.Draw += delta.Draw
		gk.Lost += delta.Lost
		gk.Mvps += delta.Mvps
	default:
		f := &r.Field
		f.Matches += delta.Matches
		f.Goals += delta.Goals
		f.Assists += delta.Assists
		f.OwnGoals += delta.OwnGoals
		f.Won += delta.Won
		f.Draw += delta.Draw
		f.Lost += delta.Lost
		f.Mvps += delta.Mvps
	}
}

// Merge adds every counter of other into r.
func (r *Record) Merge(other Record) {
	r.Apply(BlockField, Delta{
		Matches:  other.Field.Matches,
		Goals:    other.Field.Goals,
		Assists:  other.Field.Assists,
		OwnGoals: other.Field.OwnGoals,
		Won:      other.Field.Won,
		Draw:     other.Field.Draw,
		Lost:     other.Field.Lost,
		Mvps:     other.Field.Mvps,
	})
	r.Apply(BlockGoalkeeper, Delta{
		Matches:       other.Goalkeeper.Matches,
		GoalsConceded: other.Goalkeeper.GoalsConceded,
		CleanSheets:   other.Goalkeeper.CleanSheets,
		Goals:         other.Goalkeeper.Goals,
		Assists:       other.Goalkeeper.Assists,
		OwnGoals:      other.Goalkeeper.OwnGoals,
		Won:           other.Goalkeeper.Won,
		Draw:          other.Goalkeeper.Draw,
		Lost:          other.Goalkeeper.Lost,
		Mvps:          other.Goalkeeper.Mvps,
	})
}
