package match

import "sort"

type Tally struct {
	MemberID string
	Votes    int
}

// TallyBallots counts votes per candidate, highest first and ties ordered by member id.
func TallyBallots(ballots map[string]string) []Tally {
	counts := make(map[string]int, len(ballots))
	for _, voted := range ballots {
		if voted == "" {
			continue
		}
		counts[voted]++
	}

	out := make([]Tally, 0, len(counts))
	for memberID, votes := range counts {
		out = append(out, Tally{MemberID: memberID, Votes: votes})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

// Winner returns the plurality candidate; a tie goes to the lexicographically smallest member id.
func Winner(ballots map[string]string) (string, bool) {
	tally := TallyBallots(ballots)
	if len(tally) == 0 {
		return "", false
	}
	return tally[0].MemberID, true
}
