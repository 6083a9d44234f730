package match

import (
	"fmt"
	"strings"
	"time"
)

type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DF"
	PositionMidfielder Position = "MD"
	PositionForward    Position = "FW"
)

func (p Position) Valid() bool {
	switch p {
	case PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward:
		return true
	default:
		return false
	}
}

func (p Position) IsGoalkeeper() bool {
	return p == PositionGoalkeeper
}

// Entry is one member's write-once performance in a match.
type Entry struct {
	MemberID string
	Position Position
	Goals    int
	Assists  int
	OwnGoals int
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.MemberID) == "" {
		return fmt.Errorf("entry member id is required")
	}
	if !e.Position.Valid() {
		return fmt.Errorf("invalid position %q for member=%s", e.Position, e.MemberID)
	}
	if e.Goals < 0 || e.Assists < 0 || e.OwnGoals < 0 {
		return fmt.Errorf("negative counters for member=%s", e.MemberID)
	}
	return nil
}

type Side int

const (
	SideNone Side = iota
	SideTeam1
	SideTeam2
)

type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeDraw Outcome = "draw"
	OutcomeLost Outcome = "lost"
)

type VotingStatus string

const (
	VotingOpen       VotingStatus = "open"
	VotingCalculated VotingStatus = "calculated"
)

type Voting struct {
	Status       VotingStatus
	OpensAt      time.Time
	ClosesAt     time.Time
	CalculatedAt *time.Time
}

type Match struct {
	ID            string
	GroupID       string
	Season        int
	Date          time.Time
	Team1         []Entry
	Team2         []Entry
	GoalsTeam1    int
	GoalsTeam2    int
	MvpMemberID   string
	Voting        Voting
	Ballots       map[string]string
	LegacyMatchID string
	CreatedAt     time.Time
}

// SeasonOf returns the statistics partition of a match date.
func SeasonOf(date time.Time) int {
	return date.UTC().Year()
}

// FinalScores credits own goals to the opposing side.
func FinalScores(team1, team2 []Entry) (int, int) {
	var goals1, goals2 int
	for _, entry := range team1 {
		goals1 += entry.Goals
		goals2 += entry.OwnGoals
	}
	for _, entry := range team2 {
		goals2 += entry.Goals
		goals1 += entry.OwnGoals
	}
	return goals1, goals2
}

// OutcomeFor reports the result from the perspective of side.
func (m Match) OutcomeFor(side Side) Outcome {
	own, opp := m.ScoresFor(side)
	switch {
	case own > opp:
		return OutcomeWon
	case own < opp:
		return OutcomeLost
	default:
		return OutcomeDraw
	}
}

// ScoresFor returns (own, opposing) final scores for side.
func (m Match) ScoresFor(side Side) (int, int) {
	if side == SideTeam2 {
		return m.GoalsTeam2, m.GoalsTeam1
	}
	return m.GoalsTeam1, m.GoalsTeam2
}

// Participant finds memberID in either roster.
func (m Match) Participant(memberID string) (Entry, Side, bool) {
	for _, entry := range m.Team1 {
		if entry.MemberID == memberID {
			return entry, SideTeam1, true
		}
	}
	for _, entry := range m.Team2 {
		if entry.MemberID == memberID {
			return entry, SideTeam2, true
		}
	}
	return Entry{}, SideNone, false
}

// AcceptsBallotsAt reports whether the voting window is open at now.
func (m Match) AcceptsBallotsAt(now time.Time) bool {
	return m.Voting.Status == VotingOpen && now.Before(m.Voting.ClosesAt)
}

// DueAt reports whether the sweep should resolve voting at now.
func (m Match) DueAt(now time.Time) bool {
	return m.Voting.Status == VotingOpen && !m.Voting.ClosesAt.After(now)
}

func (m Match) Validate() error {
	if strings.TrimSpace(m.GroupID) == "" {
		return fmt.Errorf("group id is required")
	}
	if m.Date.IsZero() {
		return fmt.Errorf("match date is required")
	}
	if len(m.Team1) == 0 || len(m.Team2) == 0 {
		return fmt.Errorf("both teams need at least one entry")
	}

	seen := make(map[string]struct{}, len(m.Team1)+len(m.Team2))
	for _, team := range [][]Entry{m.Team1, m.Team2} {
		for _, entry := range team {
			if err := entry.Validate(); err != nil {
				return err
			}
			if _, ok := seen[entry.MemberID]; ok {
				return fmt.Errorf("member=%s appears more than once", entry.MemberID)
			}
			seen[entry.MemberID] = struct{}{}
		}
	}
	return nil
}

// MemberIDs lists every participant, team1 first.
func (m Match) MemberIDs() []string {
	out := make([]string, 0, len(m.Team1)+len(m.Team2))
	for _, entry := range m.Team1 {
		out = append(out, entry.MemberID)
	}
	for _, entry := range m.Team2 {
		out = append(out, entry.MemberID)
	}
	return out
}

func (m Match) Clone() Match {
	out := m
	out.Team1 = append([]Entry(nil), m.Team1...)
	out.Team2 = append([]Entry(nil), m.Team2...)
	out.Ballots = make(map[string]string, len(m.Ballots))
	for voter, voted := range m.Ballots {
		out.Ballots[voter] = voted
	}
	if m.Voting.CalculatedAt != nil {
		at := *m.Voting.CalculatedAt
		out.Voting.CalculatedAt = &at
	}
	return out
}
