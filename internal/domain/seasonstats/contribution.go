package seasonstats

import (
	"sort"

	"github.com/riskibarqy/sunday-league/internal/domain/match"
)

// Contribution is the effect of one match on one member's season record.
type Contribution struct {
	Key   Key
	Block Block
	Delta Delta
}

func BlockFor(position match.Position) Block {
	if position.IsGoalkeeper() {
		return BlockGoalkeeper
	}
	return BlockField
}

// MatchContributions derives one contribution per entry of a recorded match.
// Both the incremental writer and the full recompute go through here.
func MatchContributions(item match.Match) []Contribution {
	out := make([]Contribution, 0, len(item.Team1)+len(item.Team2))
	out = appendSide(out, item, item.Team1, match.SideTeam1)
	out = appendSide(out, item, item.Team2, match.SideTeam2)
	return out
}

func appendSide(out []Contribution, item match.Match, entries []match.Entry, side match.Side) []Contribution {
	_, conceded := item.ScoresFor(side)
	outcome := item.OutcomeFor(side)
	for _, entry := range entries {
		if entry.MemberID == "" {
			continue
		}
		delta := Delta{
			Matches:  1,
			Goals:    entry.Goals,
			Assists:  entry.Assists,
			OwnGoals: entry.OwnGoals,
		}
		switch outcome {
		case match.OutcomeWon:
			delta.Won = 1
		case match.OutcomeLost:
			delta.Lost = 1
		default:
			delta.Draw = 1
		}

		block := BlockFor(entry.Position)
		if block == BlockGoalkeeper {
			delta.GoalsConceded = conceded
			if conceded == 0 {
				delta.CleanSheets = 1
			}
		}

		out = append(out, Contribution{
			Key:   Key{GroupID: item.GroupID, Season: item.Season, MemberID: entry.MemberID},
			Block: block,
			Delta: delta,
		})
	}
	return out
}

// MvpContribution credits the resolved winner in the block of their position in that match.
func MvpContribution(item match.Match, winnerID string) (Contribution, bool) {
	entry, _, ok := item.Participant(winnerID)
	if !ok {
		return Contribution{}, false
	}
	return Contribution{
		Key:   Key{GroupID: item.GroupID, Season: item.Season, MemberID: winnerID},
		Block: BlockFor(entry.Position),
		Delta: Delta{Mvps: 1},
	}, true
}

// Recompute folds every match from zero. Matches are processed in id order so output is stable.
func Recompute(matches []match.Match) []Record {
	sorted := append([]match.Match(nil), matches...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[string]*Record)
	apply := func(c Contribution) {
		id := c.Key.RecordID()
		rec, ok := byID[id]
		if !ok {
			created := NewRecord(c.Key)
			rec = &created
			byID[id] = rec
		}
		rec.Apply(c.Block, c.Delta)
	}

	for _, item := range sorted {
		for _, c := range MatchContributions(item) {
			apply(c)
		}
		if item.MvpMemberID != "" {
			if c, ok := MvpContribution(item, item.MvpMemberID); ok {
				apply(c)
			}
		}
	}

	out := make([]Record, 0, len(byID))
	for _, rec := range byID {
		out = append(out, *rec)
	}
	SortRecords(out)
	return out
}

// SumAcrossSeasons folds per-season records into one synthetic record per member.
func SumAcrossSeasons(groupID string, records []Record) []Record {
	byMember := make(map[string]*Record)
	for _, item := range records {
		if item.GroupID != groupID {
			continue
		}
		rec, ok := byMember[item.MemberID]
		if !ok {
			rec = &Record{
				ID:       AllSeasonsRecordID(groupID, item.MemberID),
				GroupID:  groupID,
				MemberID: item.MemberID,
			}
			byMember[item.MemberID] = rec
		}
		rec.Merge(item)
	}

	out := make([]Record, 0, len(byMember))
	for _, rec := range byMember {
		out = append(out, *rec)
	}
	SortRecords(out)
	return out
}

func SortRecords(items []Record) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].GroupID != items[j].GroupID {
			return items[i].GroupID < items[j].GroupID
		}
		if items[i].Season != items[j].Season {
			return items[i].Season < items[j].Season
		}
		return items[i].MemberID < items[j].MemberID
	})
}
