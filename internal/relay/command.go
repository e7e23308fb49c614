package relay

const (
	ActionCreateRoom     = "createRoom"
	ActionJoinRoom       = "joinRoom"
	ActionTossChoice     = "playerTossChoice"
	ActionChooseNumber   = "chooseNumber"
	ActionRequestRestart = "requestRestart"
	ActionLeaveRoom      = "leaveRoom"
)

// Command is an inbound participant request. The set is closed.
type Command interface {
	command()
}

type CreateRoom struct {
	Name       string `json:"name"`
	VsComputer bool   `json:"vsComputer,omitempty"`
}

type JoinRoom struct {
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
}

type TossChoice struct {
	RoomID string `json:"roomId"`
	Player int    `json:"player"`
	Choice string `json:"choice"`
}

type ChooseNumber struct {
	RoomID string `json:"roomId"`
	Player int    `json:"player"`
	Number int    `json:"number"`
}

type RequestRestart struct {
	RoomID string `json:"roomId"`
}

type LeaveRoom struct {
	RoomID string `json:"roomId"`
}

func (*CreateRoom) command()     {}
func (*JoinRoom) command()       {}
func (*TossChoice) command()     {}
func (*ChooseNumber) command()   {}
func (*RequestRestart) command() {}
func (*LeaveRoom) command()      {}
