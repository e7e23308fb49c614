package relay

// Event is an outbound notification. Its JSON form is the message payload.
type Event interface {
	Action() string
}

type RoomCreated struct {
	RoomID      string `json:"roomId"`
	PlayerIndex int    `json:"playerIndex"`
	VsComputer  bool   `json:"vsComputer,omitempty"`
}

type RoomJoined struct {
	RoomID       string `json:"roomId"`
	PlayerIndex  int    `json:"playerIndex"`
	OpponentName string `json:"opponentName"`
}

type PlayerJoined struct {
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
}

type ChooseTossCaller struct {
	Caller     int    `json:"caller"`
	CallerName string `json:"callerName"`
}

type TossResult struct {
	ServerChoice      string `json:"serverChoice"`
	PlayerChoice      string `json:"playerChoice"`
	StartingPlayer    int    `json:"startingPlayer"`
	TossWinner        int    `json:"tossWinner"`
	TossWinnerName    string `json:"tossWinnerName"`
	CallingPlayerName string `json:"callingPlayerName"`
}

// BothPlayersReady carries both boards, as the original clients render both grids.
type BothPlayersReady struct {
	Player1Board   []int  `json:"player1Board"`
	Player2Board   []int  `json:"player2Board"`
	StartingPlayer int    `json:"startingPlayer"`
	Player1Name    string `json:"player1Name"`
	Player2Name    string `json:"player2Name"`
}

type PlayerMove struct {
	Player     int    `json:"player"`
	Number     int    `json:"number"`
	PlayerName string `json:"playerName"`
}

type LinesCompleted struct {
	Player     int   `json:"player"`
	Lines      []int `json:"lines"`
	TotalLines int   `json:"totalLines"`
}

type TurnChanged struct {
	CurrentPlayer     int    `json:"currentPlayer"`
	CurrentPlayerName string `json:"currentPlayerName"`
}

type GameWinner struct {
	Winner     int    `json:"winner"`
	WinnerName string `json:"winnerName"`
	Lines      int    `json:"lines"`
}

type WaitingForRestart struct {
	WaitingFor string `json:"waitingFor"`
}

type GameRestarted struct {
	Player1Board       []int  `json:"player1Board"`
	Player2Board       []int  `json:"player2Board"`
	StartingPlayer     int    `json:"startingPlayer"`
	StartingPlayerName string `json:"startingPlayerName"`
	Player1Name        string `json:"player1Name"`
	Player2Name        string `json:"player2Name"`
}

type PlayerLeft struct {
	PlayerName string `json:"playerName"`
}

type RoomClosed struct {
	Reason string `json:"reason"`
}

type ErrorMessage struct {
	Text string `json:"text"`
}

func (RoomCreated) Action() string       { return "roomCreated" }
func (RoomJoined) Action() string        { return "roomJoined" }
func (PlayerJoined) Action() string      { return "playerJoined" }
func (ChooseTossCaller) Action() string  { return "chooseTossCaller" }
func (TossResult) Action() string        { return "tossResult" }
func (BothPlayersReady) Action() string  { return "bothPlayersReady" }
func (PlayerMove) Action() string        { return "playerMove" }
func (LinesCompleted) Action() string    { return "linesCompleted" }
func (TurnChanged) Action() string       { return "turnChanged" }
func (GameWinner) Action() string        { return "gameWinner" }
func (WaitingForRestart) Action() string { return "waitingForRestart" }
func (GameRestarted) Action() string     { return "gameRestarted" }
func (PlayerLeft) Action() string        { return "playerLeft" }
func (RoomClosed) Action() string        { return "roomClosed" }
func (ErrorMessage) Action() string      { return "errorMessage" }
