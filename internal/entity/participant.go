package entity

// Participant is a seated player, identified by an opaque handle owned by the relay layer.
type Participant struct {
	Handle string `json:"-"`
	Name   string `json:"name"`
	Index  int    `json:"player_index"`
	Bot    bool   `json:"bot,omitempty"`
}

const BotName = "Computer"

func NewBotParticipant(roomCode string) *Participant {
	return &Participant{
		Handle: "bot:" + roomCode,
		Name:   BotName,
		Bot:    true,
	}
}

func (that *Participant) IsBot() bool {
	return that != nil && that.Bot
}
