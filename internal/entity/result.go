package entity

import "time"

// MatchResult is the record of a finished game.
type MatchResult struct {
	RoomCode   string    `json:"room_code"`
	Type       string    `json:"type"`
	Winner     string    `json:"winner"`
	WinnerSeat int       `json:"winner_seat"`
	Loser      string    `json:"loser"`
	Lines      [2]int    `json:"lines"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}

// Result - builds the match record of a finished room, or nil while the game runs.
func (that *Room) Result(now time.Time) *MatchResult {
	if !that.IsFinished() {
		return nil
	}

	result := &MatchResult{
		RoomCode:   that.Code,
		Type:       that.Type,
		WinnerSeat: that.Winner,
		Lines:      [2]int{that.Lines[0].Len(), that.Lines[1].Len()},
		Moves:      that.Moves,
		FinishedAt: now,
	}

	if winner := that.Participant(that.Winner); winner != nil {
		result.Winner = winner.Name
	}

	if loser := that.Participant(Opponent(that.Winner)); loser != nil {
		result.Loser = loser.Name
	}

	return result
}
