package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusToss     = "toss"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

const (
	NoPlayer = 0
	Player1  = 1
	Player2  = 2
)

const (
	PrivateType = "private"
	WithBotType = "bot"
)

// TurnState is the turn state machine view of a room.
type TurnState int

const (
	AwaitingToss TurnState = iota
	Player1Turn
	Player2Turn
	Ended
)

func (that TurnState) String() string {
	switch that {
	case AwaitingToss:
		return "awaiting_toss"
	case Player1Turn:
		return "player1_turn"
	case Player2Turn:
		return "player2_turn"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("turn_state(%d)", int(that))
	}
}

// Room is a two-seat game session. It is not safe for concurrent use;
// a room is owned by exactly one goroutine.
type Room struct {
	Code    string          `json:"code"`
	Type    string          `json:"type"`
	Players [2]*Participant `json:"players"`
	Boards  [2]*Board       `json:"-"`
	Lines   [2]LineSet      `json:"-"`
	Turn    int             `json:"turn"`
	Status  string          `json:"status"`
	Winner  int             `json:"winner"`
	Caller  int             `json:"toss_caller,omitempty"`
	Restart [2]bool         `json:"-"`
	Moves   int             `json:"moves"`
}

// MoveResult describes an accepted move.
type MoveResult struct {
	Player     int
	Number     int
	NewLines   [2][]int
	LineCounts [2]int
	Winner     int
	NextTurn   int
}

func NewRoom(code, roomType string) *Room {
	return &Room{
		Code:   code,
		Type:   roomType,
		Status: StatusWaiting,
	}
}

func Opponent(player int) int {
	if player == Player1 {
		return Player2
	}
	return Player1
}

func (that *Room) IsWithBot() bool {
	return that.Type == WithBotType
}

func (that *Room) Participant(player int) *Participant {
	if player != Player1 && player != Player2 {
		return nil
	}
	return that.Players[player-1]
}

func (that *Room) Board(player int) *Board {
	if player != Player1 && player != Player2 {
		return nil
	}
	return that.Boards[player-1]
}

// SeatOf - returns the player index bound to handle, or NoPlayer.
func (that *Room) SeatOf(handle string) int {
	for i, p := range that.Players {
		if p != nil && p.Handle == handle {
			return i + 1
		}
	}

	return NoPlayer
}

func (that *Room) IsFull() bool {
	return that.Players[0] != nil && that.Players[1] != nil
}

func (that *Room) IsEmpty() bool {
	return that.Players[0] == nil && that.Players[1] == nil
}

// Humans - returns the seated non-bot participants.
func (that *Room) Humans() []*Participant {
	humans := make([]*Participant, 0, len(that.Players))
	for _, p := range that.Players {
		if p != nil && !p.IsBot() {
			humans = append(humans, p)
		}
	}

	return humans
}

// Seat - places participant in the first free slot together with their board.
func (that *Room) Seat(participant *Participant, board *Board) (int, error) {
	if that.Status != StatusWaiting {
		return NoPlayer, apperror.ErrRoomFull
	}

	for i := range that.Players {
		if that.Players[i] == nil {
			participant.Index = i + 1
			that.Players[i] = participant
			that.Boards[i] = board
			return participant.Index, nil
		}
	}

	return NoPlayer, apperror.ErrRoomFull
}

// Leave - removes the participant and discards their board. A running game cannot continue.
func (that *Room) Leave(player int) *Participant {
	participant := that.Participant(player)
	if participant == nil {
		return nil
	}

	that.Players[player-1] = nil
	that.Boards[player-1] = nil
	that.Lines[player-1] = 0
	that.Restart = [2]bool{}
	that.Turn = NoPlayer
	that.Caller = NoPlayer
	that.Status = StatusWaiting

	return participant
}

// BeginToss - moves a full room into the toss-pending state with caller designated.
func (that *Room) BeginToss(caller int) error {
	if !that.IsFull() {
		return apperror.ErrGameIsNotStarted
	}

	if that.Status != StatusWaiting {
		return fmt.Errorf("%w: status %s", apperror.ErrTossNotPending, that.Status)
	}

	that.Status = StatusToss
	that.Caller = caller
	that.Turn = NoPlayer

	return nil
}

// ConfirmTossCaller - checks that player may submit the pending toss call.
func (that *Room) ConfirmTossCaller(player int) error {
	if that.Status != StatusToss {
		return apperror.ErrTossNotPending
	}

	if that.Caller != player {
		return apperror.ErrNotTossCaller
	}

	return nil
}

// Start - the toss resolved, the starting player moves first.
func (that *Room) Start(startingPlayer int) {
	that.Status = StatusOngoing
	that.Turn = startingPlayer
	that.Caller = NoPlayer
	that.Winner = NoPlayer
}

func (that *Room) State() TurnState {
	switch {
	case that.Status == StatusFinished:
		return Ended
	case that.Status == StatusOngoing && that.Turn == Player1:
		return Player1Turn
	case that.Status == StatusOngoing && that.Turn == Player2:
		return Player2Turn
	default:
		return AwaitingToss
	}
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Room) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Room) ConfirmOngoingState() error {
	switch that.Status {
	case StatusOngoing:
		return nil
	case StatusFinished:
		return apperror.ErrGameFinished
	default:
		return apperror.ErrGameIsNotStarted
	}
}

// MakeMove - applies player's choice of number to both boards.
// The mover's board is evaluated first, so if both players reach the winning
// line count with the same move, the mover wins.
func (that *Room) MakeMove(player int, number int) (*MoveResult, error) {
	if err := that.ConfirmOngoingState(); err != nil {
		return nil, err
	}

	if that.Turn != player {
		return nil, apperror.ErrNotYourTurn
	}

	board := that.Board(player)
	if !board.Contains(number) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrNumberNotOnBoard, number)
	}

	if board.IsStruck(number) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrAlreadyStruck, number)
	}

	opponent := Opponent(player)

	board.Strike(number)
	if opponentBoard := that.Board(opponent); opponentBoard != nil {
		opponentBoard.Strike(number)
	}

	that.Moves++

	result := &MoveResult{
		Player: player,
		Number: number,
	}

	for _, p := range [2]int{player, opponent} {
		b := that.Board(p)
		if b == nil {
			continue
		}

		newLines := b.CompletedLines(that.Lines[p-1])
		for _, line := range newLines {
			that.Lines[p-1].Add(line)
		}

		result.NewLines[p-1] = newLines
		result.LineCounts[p-1] = that.Lines[p-1].Len()
	}

	switch {
	case that.Lines[player-1].Len() >= WinningLineCount:
		that.finish(player)
	case that.Lines[opponent-1].Len() >= WinningLineCount:
		that.finish(opponent)
	default:
		that.Turn = opponent
	}

	result.Winner = that.Winner
	result.NextTurn = that.Turn

	return result, nil
}

func (that *Room) finish(winner int) {
	that.Winner = winner
	that.Status = StatusFinished
	that.Turn = NoPlayer
}

// RequestRestart - records player's consent to a rematch. Reports whether both agreed.
func (that *Room) RequestRestart(player int) (bool, error) {
	if !that.IsFinished() {
		return false, apperror.ErrGameNotFinished
	}

	if that.Participant(player) == nil {
		return false, apperror.ErrNotInRoom
	}

	that.Restart[player-1] = true

	return that.Restart[0] && that.Restart[1], nil
}

// Reset - starts a fresh game with new boards, keeping the participants.
func (that *Room) Reset(board1, board2 *Board, startingPlayer int) {
	that.Boards = [2]*Board{board1, board2}
	that.Lines = [2]LineSet{}
	that.Restart = [2]bool{}
	that.Moves = 0
	that.Start(startingPlayer)
}

// RoomSnapshot is the public view of a room. It never carries boards.
type RoomSnapshot struct {
	Code      string       `json:"code"`
	Type      string       `json:"type"`
	Status    string       `json:"status"`
	State     string       `json:"state"`
	Turn      int          `json:"turn"`
	Winner    int          `json:"winner"`
	Moves     int          `json:"moves"`
	Players   []PlayerView `json:"players"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type PlayerView struct {
	Index int    `json:"player_index"`
	Name  string `json:"name"`
	Bot   bool   `json:"bot,omitempty"`
	Lines int    `json:"lines"`
}

func (that *Room) Snapshot(now time.Time) *RoomSnapshot {
	snapshot := &RoomSnapshot{
		Code:      that.Code,
		Type:      that.Type,
		Status:    that.Status,
		State:     that.State().String(),
		Turn:      that.Turn,
		Winner:    that.Winner,
		Moves:     that.Moves,
		Players:   make([]PlayerView, 0, len(that.Players)),
		UpdatedAt: now,
	}

	for i, p := range that.Players {
		if p == nil {
			continue
		}

		snapshot.Players = append(snapshot.Players, PlayerView{
			Index: p.Index,
			Name:  p.Name,
			Bot:   p.Bot,
			Lines: that.Lines[i].Len(),
		})
	}

	return snapshot
}
