package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/relay"
	"github.com/rocketscienceinc/bingo-backend/internal/service"
)

const (
	closeReasonIdle = "idle"
	unknownPlayer   = "other player"
)

// roomActor owns one room. All room state is touched only from its goroutine.
type roomActor struct {
	manager *RoomManager
	logger  *slog.Logger
	room    *entity.Room

	inbox  chan func()
	done   chan struct{}
	closed bool

	lastActive atomic.Int64
}

func newRoomActor(manager *RoomManager, room *entity.Room) *roomActor {
	return &roomActor{
		manager: manager,
		logger:  manager.logger.With("component", "room", "room", room.Code),
		room:    room,
		inbox:   make(chan func()),
		done:    make(chan struct{}),
	}
}

func (that *roomActor) run() {
	for {
		select {
		case fn := <-that.inbox:
			fn()
		case <-that.done:
			return
		}
	}
}

// do - runs fn on the actor goroutine and waits for its result.
func (that *roomActor) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)

	select {
	case that.inbox <- func() { reply <- fn() }:
	case <-that.done:
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, that.room.Code)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// exec - handles a participant command: counts as activity and persists the outcome.
func (that *roomActor) exec(ctx context.Context, fn func() error) error {
	return that.do(ctx, func() error {
		if that.closed {
			return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, that.room.Code)
		}

		that.touch()
		err := fn()
		that.save()

		return err
	})
}

func (that *roomActor) touch() {
	that.lastActive.Store(that.manager.now().UnixNano())
}

func (that *roomActor) idleSince(deadline time.Time) bool {
	return that.lastActive.Load() < deadline.UnixNano()
}

func (that *roomActor) save() {
	if that.closed {
		return
	}

	that.manager.enqueue(persistJob{snapshot: that.room.Snapshot(that.manager.now())})
}

func (that *roomActor) close() {
	if that.closed {
		return
	}

	that.closed = true
	that.manager.release(that.room.Code)
	that.manager.enqueue(persistJob{deleted: that.room.Code})
	close(that.done)

	that.logger.Info("room closed")
}

func (that *roomActor) create(handle, name string) error {
	creator := &entity.Participant{Handle: handle, Name: name}

	seat, err := that.room.Seat(creator, that.manager.newBoard())
	if err != nil {
		return err
	}

	that.publish(handle, relay.RoomCreated{
		RoomID:      that.room.Code,
		PlayerIndex: seat,
		VsComputer:  that.room.IsWithBot(),
	})

	that.logger.Info("room created", "player", name, "type", that.room.Type)

	if !that.room.IsWithBot() {
		return nil
	}

	if _, err = that.room.Seat(entity.NewBotParticipant(that.room.Code), that.manager.newBoard()); err != nil {
		return err
	}

	return that.beginToss(seat)
}

func (that *roomActor) join(handle, name string) error {
	participant := &entity.Participant{Handle: handle, Name: name}

	seat, err := that.room.Seat(participant, that.manager.newBoard())
	if err != nil {
		return fmt.Errorf("%w: %s", err, that.room.Code)
	}

	if err = that.manager.bind(handle, that.room.Code); err != nil {
		that.room.Leave(seat)
		return err
	}

	opponent := that.room.Participant(entity.Opponent(seat))

	that.publish(handle, relay.RoomJoined{
		RoomID:       that.room.Code,
		PlayerIndex:  seat,
		OpponentName: opponent.Name,
	})
	that.publish(opponent.Handle, relay.PlayerJoined{
		Name:   name,
		RoomID: that.room.Code,
	})

	that.logger.Info("player joined", "player", name, "seat", seat)

	return that.beginToss(that.manager.toss.PickCaller())
}

func (that *roomActor) beginToss(caller int) error {
	if err := that.room.BeginToss(caller); err != nil {
		return err
	}

	that.broadcast(relay.ChooseTossCaller{
		Caller:     caller,
		CallerName: that.nameOf(caller),
	})

	return nil
}

func (that *roomActor) tossChoice(handle string, cmd *relay.TossChoice) error {
	seat := that.room.SeatOf(handle)
	if seat == entity.NoPlayer {
		return apperror.ErrNotInRoom
	}

	if cmd.Player != entity.NoPlayer && cmd.Player != seat {
		return apperror.ErrNotTossCaller
	}

	if err := that.room.ConfirmTossCaller(seat); err != nil {
		return err
	}

	call, err := service.ParseCoinSide(cmd.Choice)
	if err != nil {
		return err
	}

	result := that.manager.toss.Resolve(seat, call)
	that.room.Start(result.StartingPlayer)

	that.broadcast(relay.TossResult{
		ServerChoice:      string(result.ServerChoice),
		PlayerChoice:      string(result.PlayerChoice),
		StartingPlayer:    result.StartingPlayer,
		TossWinner:        result.TossWinner,
		TossWinnerName:    that.nameOf(result.TossWinner),
		CallingPlayerName: that.nameOf(seat),
	})
	that.broadcast(relay.BothPlayersReady{
		Player1Board:   that.room.Board(entity.Player1).NumberList(),
		Player2Board:   that.room.Board(entity.Player2).NumberList(),
		StartingPlayer: result.StartingPlayer,
		Player1Name:    that.nameOf(entity.Player1),
		Player2Name:    that.nameOf(entity.Player2),
	})

	that.logger.Info("toss resolved",
		"server_choice", result.ServerChoice,
		"player_choice", result.PlayerChoice,
		"starting_player", result.StartingPlayer,
	)

	that.playBot()

	return nil
}

func (that *roomActor) chooseNumber(handle string, cmd *relay.ChooseNumber) error {
	seat := that.room.SeatOf(handle)
	if seat == entity.NoPlayer {
		return apperror.ErrNotInRoom
	}

	if cmd.Player != entity.NoPlayer && cmd.Player != seat {
		return apperror.ErrNotYourTurn
	}

	if err := that.move(seat, cmd.Number); err != nil {
		if errors.Is(err, apperror.ErrAlreadyStruck) {
			that.logger.Debug("ignored struck number", "player", seat, "number", cmd.Number)
			return nil
		}

		return err
	}

	that.playBot()

	return nil
}

func (that *roomActor) move(seat, number int) error {
	result, err := that.room.MakeMove(seat, number)
	if err != nil {
		return err
	}

	that.broadcast(relay.PlayerMove{
		Player:     seat,
		Number:     number,
		PlayerName: that.nameOf(seat),
	})

	for i, lines := range result.NewLines {
		if len(lines) == 0 {
			continue
		}

		that.broadcast(relay.LinesCompleted{
			Player:     i + 1,
			Lines:      lines,
			TotalLines: result.LineCounts[i],
		})
	}

	if result.Winner != entity.NoPlayer {
		that.broadcast(relay.GameWinner{
			Winner:     result.Winner,
			WinnerName: that.nameOf(result.Winner),
			Lines:      result.LineCounts[result.Winner-1],
		})
		that.manager.enqueue(persistJob{result: that.room.Result(that.manager.now())})

		that.logger.Info("game finished", "winner", result.Winner, "moves", that.room.Moves)

		return nil
	}

	that.broadcast(relay.TurnChanged{
		CurrentPlayer:     result.NextTurn,
		CurrentPlayerName: that.nameOf(result.NextTurn),
	})

	return nil
}

// playBot - lets the computer take its turn, if it has one.
func (that *roomActor) playBot() {
	seat := that.botSeat()
	if seat == entity.NoPlayer || !that.room.IsOngoing() || that.room.Turn != seat {
		return
	}

	number, err := that.manager.bot.PickNumber(that.room.Board(seat))
	if err != nil {
		that.logger.Error("bot could not pick a number", "error", err)
		return
	}

	if err = that.move(seat, number); err != nil {
		that.logger.Error("bot move rejected", "number", number, "error", err)
	}
}

func (that *roomActor) requestRestart(handle string) error {
	seat := that.room.SeatOf(handle)
	if seat == entity.NoPlayer {
		return apperror.ErrNotInRoom
	}

	agreed, err := that.room.RequestRestart(seat)
	if err != nil {
		return err
	}

	if bot := that.botSeat(); !agreed && bot != entity.NoPlayer {
		if agreed, err = that.room.RequestRestart(bot); err != nil {
			return err
		}
	}

	if !agreed {
		that.publish(handle, relay.WaitingForRestart{
			WaitingFor: that.nameOf(entity.Opponent(seat)),
		})
		return nil
	}

	starting := that.manager.toss.PickStarter()
	that.room.Reset(that.manager.newBoard(), that.manager.newBoard(), starting)

	that.broadcast(relay.GameRestarted{
		Player1Board:       that.room.Board(entity.Player1).NumberList(),
		Player2Board:       that.room.Board(entity.Player2).NumberList(),
		StartingPlayer:     starting,
		StartingPlayerName: that.nameOf(starting),
		Player1Name:        that.nameOf(entity.Player1),
		Player2Name:        that.nameOf(entity.Player2),
	})

	that.logger.Info("game restarted", "starting_player", starting)

	that.playBot()

	return nil
}

// leave - removes the participant and tears the room down, telling whoever is left.
func (that *roomActor) leave(handle string) {
	seat := that.room.SeatOf(handle)
	if seat == entity.NoPlayer {
		return
	}

	participant := that.room.Leave(seat)
	that.broadcast(relay.PlayerLeft{PlayerName: participant.Name})

	that.logger.Info("player left", "player", participant.Name, "seat", seat)

	that.close()
}

func (that *roomActor) expire() {
	that.broadcast(relay.RoomClosed{Reason: closeReasonIdle})
	that.close()
}

func (that *roomActor) botSeat() int {
	for i, p := range that.room.Players {
		if p.IsBot() {
			return i + 1
		}
	}

	return entity.NoPlayer
}

func (that *roomActor) nameOf(player int) string {
	if p := that.room.Participant(player); p != nil {
		return p.Name
	}

	return unknownPlayer
}

func (that *roomActor) publish(handle string, event relay.Event) {
	that.manager.publisher.Publish(handle, event)
}

func (that *roomActor) broadcast(event relay.Event) {
	for _, p := range that.room.Humans() {
		that.publish(p.Handle, event)
	}
}
