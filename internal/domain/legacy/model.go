package legacy

import "time"

// Player is a pre-migration identity record.
type Player struct {
	ID       string `json:"id"`
	GroupID  string `json:"group_id"`
	Name     string `json:"name"`
	UserID   string `json:"user_id,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

type Entry struct {
	PlayerID string `json:"player_id"`
	Position string `json:"position"`
	Goals    int    `json:"goals"`
	Assists  int    `json:"assists"`
	OwnGoals int    `json:"own_goals"`
}

type Match struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	Date        time.Time `json:"date"`
	Team1       []Entry   `json:"team1"`
	Team2       []Entry   `json:"team2"`
	Goals1      int       `json:"goals1"`
	Goals2      int       `json:"goals2"`
	MvpPlayerID string    `json:"mvp_player_id,omitempty"`
}

// Snapshot is the file form of a legacy export.
type Snapshot struct {
	Players []Player `json:"players"`
	Matches []Match  `json:"matches"`
}
