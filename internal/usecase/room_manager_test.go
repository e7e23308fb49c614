package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func playNumbers(t *testing.T, manager *RoomManager, starter int, numbers ...int) {
	t.Helper()

	ctx := testContext(t)
	player := starter
	for _, n := range numbers {
		require.NoError(t, manager.Dispatch(ctx, handleOf(player), &relay.ChooseNumber{RoomID: "WXYZ", Player: player, Number: n}), "number %d", n)
		player = entity.Opponent(player)
	}
}

func TestRoomManager_CreateAndJoin(t *testing.T) {
	ctx := testContext(t)

	// Given: toss caller 1 and a coin that lands on tails
	manager, rec := newTestManager(t, managerSetup{tossValues: []int{0, 1}})

	// When: Alice creates WXYZ and Bob joins it
	require.NoError(t, manager.Dispatch(ctx, "a", &relay.CreateRoom{Name: " Alice "}))
	require.NoError(t, manager.Dispatch(ctx, "b", &relay.JoinRoom{Name: "Bob", RoomID: "wxyz"}))

	// Then: both learn about each other and who calls the toss
	assert.Equal(t, []string{"roomCreated", "playerJoined", "chooseTossCaller"}, rec.Actions("a"))
	assert.Equal(t, []string{"roomJoined", "chooseTossCaller"}, rec.Actions("b"))

	assert.Equal(t, relay.RoomCreated{RoomID: "WXYZ", PlayerIndex: entity.Player1}, find[relay.RoomCreated](t, rec, "a"))
	assert.Equal(t, relay.PlayerJoined{Name: "Bob", RoomID: "WXYZ"}, find[relay.PlayerJoined](t, rec, "a"))
	assert.Equal(t, relay.RoomJoined{RoomID: "WXYZ", PlayerIndex: entity.Player2, OpponentName: "Alice"}, find[relay.RoomJoined](t, rec, "b"))
	assert.Equal(t, relay.ChooseTossCaller{Caller: entity.Player1, CallerName: "Alice"}, find[relay.ChooseTossCaller](t, rec, "b"))

	snapshot, err := manager.Snapshot(ctx, "WXYZ")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusToss, snapshot.Status)
	assert.Equal(t, entity.AwaitingToss.String(), snapshot.State)
	assert.Len(t, snapshot.Players, 2)
}

func TestRoomManager_TossAndFirstMove(t *testing.T) {
	ctx := testContext(t)

	// Given: Alice is designated caller and the server draws tails
	manager, rec := newTestManager(t, managerSetup{tossValues: []int{0, 1}})

	// When: Alice calls head
	startRoom(t, ctx, manager, "head")

	// Then: the non-caller starts and both receive both boards
	for _, handle := range []string{"a", "b"} {
		assert.Equal(t, relay.TossResult{
			ServerChoice:      "tails",
			PlayerChoice:      "head",
			StartingPlayer:    entity.Player2,
			TossWinner:        entity.Player2,
			TossWinnerName:    "Bob",
			CallingPlayerName: "Alice",
		}, find[relay.TossResult](t, rec, handle))

		ready := find[relay.BothPlayersReady](t, rec, handle)
		assert.Equal(t, entity.Player2, ready.StartingPlayer)
		assert.Len(t, ready.Player1Board, entity.CellCount)
		assert.Len(t, ready.Player2Board, entity.CellCount)
		assert.Equal(t, "Alice", ready.Player1Name)
		assert.Equal(t, "Bob", ready.Player2Name)
	}

	// When: Bob strikes 13
	rec.Reset()
	require.NoError(t, manager.Dispatch(ctx, "b", &relay.ChooseNumber{RoomID: "WXYZ", Player: entity.Player2, Number: 13}))

	// Then: both see the move and the turn passes to Alice
	for _, handle := range []string{"a", "b"} {
		assert.Equal(t, []string{"playerMove", "turnChanged"}, rec.Actions(handle))
		assert.Equal(t, relay.PlayerMove{Player: entity.Player2, Number: 13, PlayerName: "Bob"}, find[relay.PlayerMove](t, rec, handle))
		assert.Equal(t, relay.TurnChanged{CurrentPlayer: entity.Player1, CurrentPlayerName: "Alice"}, find[relay.TurnChanged](t, rec, handle))
	}

	inspect(t, ctx, manager, "WXYZ", func(room *entity.Room) {
		assert.True(t, room.Board(entity.Player1).IsStruck(13))
		assert.True(t, room.Board(entity.Player2).IsStruck(13))
		assert.Equal(t, entity.Player1Turn, room.State())
	})
}

func TestRoomManager_RejectedMoves(t *testing.T) {
	ctx := testContext(t)

	// Given: a started room where Alice moves first
	manager, rec := newTestManager(t, managerSetup{tossValues: []int{0, 0}})
	startRoom(t, ctx, manager, "head")
	rec.Reset()

	t.Run("Out of turn", func(t *testing.T) {
		err := manager.Dispatch(ctx, "b", &relay.ChooseNumber{RoomID: "WXYZ", Player: entity.Player2, Number: 5})

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Claiming someone else's seat", func(t *testing.T) {
		err := manager.Dispatch(ctx, "b", &relay.ChooseNumber{RoomID: "WXYZ", Player: entity.Player1, Number: 5})

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Number not on the board", func(t *testing.T) {
		err := manager.Dispatch(ctx, "a", &relay.ChooseNumber{RoomID: "WXYZ", Player: entity.Player1, Number: 99})

		assert.ErrorIs(t, err, apperror.ErrNumberNotOnBoard)
	})

	t.Run("Wrong room", func(t *testing.T) {
		err := manager.Dispatch(ctx, "a", &relay.ChooseNumber{RoomID: "ABCD", Player: entity.Player1, Number: 1})

		assert.ErrorIs(t, err, apperror.ErrNotInRoom)
	})

	// Then: nothing was broadcast and it is still Alice's turn
	assert.Empty(t, rec.Actions("a"))
	assert.Empty(t, rec.Actions("b"))

	t.Run("Already struck is silently ignored", func(t *testing.T) {
		// Given: Alice strikes 1, which mirrors onto Bob's board
		require.NoError(t, manager.Dispatch(ctx, "a", &relay.ChooseNumber{RoomID: "WXYZ", Number: 1}))
		rec.Reset()

		// When: Bob chooses 1 too
		err := manager.Dispatch(ctx, "b", &relay.ChooseNumber{RoomID: "WXYZ", Number: 1})

		// Then: no error, no events and Bob keeps the turn
		require.NoError(t, err)
		assert.Empty(t, rec.Actions("a"))
		assert.Empty(t, rec.Actions("b"))

		inspect(t, ctx, manager, "WXYZ", func(room *entity.Room) {
			assert.Equal(t, entity.Player2, room.Turn)
			assert.Equal(t, 1, room.Moves)
		})
	})
}

func TestRoomManager_ThreeLinesDoNotWin(t *testing.T) {
	ctx := testContext(t)

	// Given: identical ordered boards and Alice to start
	manager, rec := newTestManager(t, managerSetup{tossValues: []int{0, 0}})
	startRoom(t, ctx, manager, "head")
	rec.Reset()

	// When: the first row, first column and main diagonal get struck
	playNumbers(t, manager, entity.Player1, 1, 2, 3, 4, 5, 6, 11, 16, 21, 7, 13, 19, 25)

	// Then: three lines are reported and the game goes on
	actions := rec.Actions("a")
	assert.NotContains(t, actions, "gameWinner")
	assert.Contains(t, actions, "linesCompleted")
	assert.Equal(t, "turnChanged", actions[len(actions)-1])

	snapshot, err := manager.Snapshot(ctx, "WXYZ")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOngoing, snapshot.Status)
	for _, player := range snapshot.Players {
		assert.Equal(t, 3, player.Lines)
	}
}

func TestRoomManager_Win(t *testing.T) {
	ctx := testContext(t)

	// Given: repositories behind a running persistence loop
	roomRepo := &roomRepoMock{}
	roomRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Maybe()

	results := make(chan *entity.MatchResult, 1)
	resultRepo := &resultRepoMock{}
	resultRepo.On("Record", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			results <- args.Get(1).(*entity.MatchResult)
		}).
		Return(nil).
		Once()

	manager, rec := newTestManager(t, managerSetup{
		tossValues: []int{0, 0},
		roomRepo:   roomRepo,
		resultRepo: resultRepo,
	})
	go func() {
		_ = manager.Run(ctx)
	}()

	startRoom(t, ctx, manager, "head")

	// When: numbers are struck in board order
	playNumbers(t, manager, entity.Player1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21)

	// Then: 21 completes the sixth line for both, and the mover wins
	for _, handle := range []string{"a", "b"} {
		assert.Equal(t, relay.GameWinner{Winner: entity.Player1, WinnerName: "Alice", Lines: 6}, find[relay.GameWinner](t, rec, handle))
	}

	err := manager.Dispatch(ctx, "b", &relay.ChooseNumber{RoomID: "WXYZ", Number: 22})
	assert.ErrorIs(t, err, apperror.ErrGameFinished)

	// And: the result reaches the repository
	select {
	case result := <-results:
		assert.Equal(t, "WXYZ", result.RoomCode)
		assert.Equal(t, "Alice", result.Winner)
		assert.Equal(t, "Bob", result.Loser)
		assert.Equal(t, 21, result.Moves)
	case <-time.After(5 * time.Second):
		t.Fatal("match result was not recorded")
	}
}

func TestRoomManager_Restart(t *testing.T) {
	ctx := testContext(t)

	manager, rec := newTestManager(t, managerSetup{tossValues: []int{0, 0}})
	startRoom(t, ctx, manager, "head")

	t.Run("Not before the game ends", func(t *testing.T) {
		err := manager.Dispatch(ctx, "a", &relay.RequestRestart{RoomID: "WXYZ"})

		assert.ErrorIs(t, err, apperror.ErrGameNotFinished)
	})

	playNumbers(t, manager, entity.Player1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21)
	rec.Reset()

	t.Run("One request waits for the other player", func(t *testing.T) {
		// When: only Alice asks, twice
		require.NoError(t, manager.Dispatch(ctx, "a", &relay.RequestRestart{RoomID: "WXYZ"}))
		require.NoError(t, manager.Dispatch(ctx, "a", &relay.RequestRestart{}))

		// Then: Alice is told to wait, Bob hears nothing and the game stays ended
		assert.Equal(t, []string{"waitingForRestart", "waitingForRestart"}, rec.Actions("a"))
		assert.Equal(t, relay.WaitingForRestart{WaitingFor: "Bob"}, find[relay.WaitingForRestart](t, rec, "a"))
		assert.Empty(t, rec.Actions("b"))

		snapshot, err := manager.Snapshot(ctx, "WXYZ")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusFinished, snapshot.Status)
	})

	t.Run("Both requests restart the game", func(t *testing.T) {
		rec.Reset()

		// When: Bob agrees
		require.NoError(t, manager.Dispatch(ctx, "b", &relay.RequestRestart{RoomID: "WXYZ"}))

		// Then: both get fresh boards and the room is back in progress
		for _, handle := range []string{"a", "b"} {
			restarted := find[relay.GameRestarted](t, rec, handle)
			assert.Equal(t, entity.Player1, restarted.StartingPlayer)
			assert.Len(t, restarted.Player1Board, entity.CellCount)
			assert.Len(t, restarted.Player2Board, entity.CellCount)
		}

		inspect(t, ctx, manager, "WXYZ", func(room *entity.Room) {
			assert.Equal(t, entity.StatusOngoing, room.Status)
			assert.Equal(t, 0, room.Moves)
			assert.Zero(t, room.Lines[0].Len())
			assert.Zero(t, room.Lines[1].Len())
			assert.Len(t, room.Board(entity.Player1).Remaining(), entity.CellCount)
			assert.Len(t, room.Board(entity.Player2).Remaining(), entity.CellCount)
		})
	})
}

func TestRoomManager_Disconnect(t *testing.T) {
	ctx := testContext(t)

	// Given: a game in progress
	manager, rec := newTestManager(t, managerSetup{tossValues: []int{0, 0}})
	startRoom(t, ctx, manager, "head")
	playNumbers(t, manager, entity.Player1, 1)
	rec.Reset()

	// When: Alice disconnects
	require.NoError(t, manager.Disconnect(ctx, "a"))

	// Then: Bob is told and the room is gone
	assert.Equal(t, []string{"playerLeft"}, rec.Actions("b"))
	assert.Equal(t, relay.PlayerLeft{PlayerName: "Alice"}, find[relay.PlayerLeft](t, rec, "b"))

	_, err := manager.Snapshot(ctx, "WXYZ")
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)

	err = manager.Dispatch(ctx, "b", &relay.ChooseNumber{RoomID: "WXYZ", Number: 2})
	require.ErrorIs(t, err, apperror.ErrNotInRoom)

	err = manager.Dispatch(ctx, "c", &relay.JoinRoom{Name: "Carol", RoomID: "WXYZ"})
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)

	// And: Bob is free to open a new room, disconnecting twice is harmless
	require.NoError(t, manager.Dispatch(ctx, "b", &relay.CreateRoom{Name: "Bob"}))
	require.NoError(t, manager.Disconnect(ctx, "a"))
	require.NoError(t, manager.Disconnect(ctx, "nobody"))
}

func TestRoomManager_LeaveRoom(t *testing.T) {
	ctx := testContext(t)

	manager, rec := newTestManager(t, managerSetup{tossValues: []int{0, 0}})
	startRoom(t, ctx, manager, "head")
	rec.Reset()

	// When: Bob leaves without dropping the connection
	require.NoError(t, manager.Dispatch(ctx, "b", &relay.LeaveRoom{RoomID: "WXYZ"}))

	// Then: it is handled like a disconnect
	assert.Equal(t, relay.PlayerLeft{PlayerName: "Bob"}, find[relay.PlayerLeft](t, rec, "a"))

	_, err := manager.Snapshot(ctx, "WXYZ")
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)

	err = manager.Dispatch(ctx, "b", &relay.LeaveRoom{})
	assert.ErrorIs(t, err, apperror.ErrNotInRoom)
}

func TestRoomManager_Rejections(t *testing.T) {
	ctx := testContext(t)

	manager, rec := newTestManager(t, managerSetup{tossValues: []int{0, 0}})

	t.Run("Blank name", func(t *testing.T) {
		err := manager.Dispatch(ctx, "a", &relay.CreateRoom{Name: "   "})
		assert.ErrorIs(t, err, apperror.ErrInvalidName)
	})

	t.Run("Unknown room", func(t *testing.T) {
		err := manager.Dispatch(ctx, "b", &relay.JoinRoom{Name: "Bob", RoomID: "QQQQ"})
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	require.NoError(t, manager.Dispatch(ctx, "a", &relay.CreateRoom{Name: "Alice"}))

	t.Run("Creator cannot open a second room", func(t *testing.T) {
		err := manager.Dispatch(ctx, "a", &relay.CreateRoom{Name: "Alice"})
		assert.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
	})

	t.Run("Move before the toss", func(t *testing.T) {
		err := manager.Dispatch(ctx, "a", &relay.ChooseNumber{RoomID: "WXYZ", Number: 1})
		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	require.NoError(t, manager.Dispatch(ctx, "b", &relay.JoinRoom{Name: "Bob", RoomID: "WXYZ"}))

	t.Run("Third participant", func(t *testing.T) {
		err := manager.Dispatch(ctx, "c", &relay.JoinRoom{Name: "Carol", RoomID: "WXYZ"})
		assert.ErrorIs(t, err, apperror.ErrRoomFull)
	})

	rec.Reset()

	t.Run("Only the caller may call", func(t *testing.T) {
		err := manager.Dispatch(ctx, "b", &relay.TossChoice{RoomID: "WXYZ", Choice: "head"})
		assert.ErrorIs(t, err, apperror.ErrNotTossCaller)
	})

	t.Run("Invalid toss choice", func(t *testing.T) {
		err := manager.Dispatch(ctx, "a", &relay.TossChoice{RoomID: "WXYZ", Player: entity.Player1, Choice: "edge"})
		assert.ErrorIs(t, err, apperror.ErrInvalidTossChoice)
	})

	// Then: rejections never reach the room
	assert.Empty(t, rec.Actions("a"))
	assert.Empty(t, rec.Actions("b"))

	snapshot, err := manager.Snapshot(ctx, "WXYZ")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusToss, snapshot.Status)
}

func TestRoomManager_CodeCollision(t *testing.T) {
	ctx := testContext(t)

	// Given: a generator that repeats the first code once
	manager, rec := newTestManager(t, managerSetup{codes: []string{"WXYZ", "WXYZ", "ABCD"}})

	// When: two rooms are created
	require.NoError(t, manager.Dispatch(ctx, "a", &relay.CreateRoom{Name: "Alice"}))
	require.NoError(t, manager.Dispatch(ctx, "b", &relay.CreateRoom{Name: "Bob"}))

	// Then: the second one gets a fresh code
	assert.Equal(t, "WXYZ", find[relay.RoomCreated](t, rec, "a").RoomID)
	assert.Equal(t, "ABCD", find[relay.RoomCreated](t, rec, "b").RoomID)
}

func TestRoomManager_BotRoom(t *testing.T) {
	ctx := testContext(t)

	// Given: the coin lands on tails
	manager, rec := newTestManager(t, managerSetup{tossValues: []int{1}})

	// When: Alice opens a room against the computer
	require.NoError(t, manager.Dispatch(ctx, "a", &relay.CreateRoom{Name: "Alice", VsComputer: true}))

	// Then: she is asked to call the toss right away
	assert.Equal(t, []string{"roomCreated", "chooseTossCaller"}, rec.Actions("a"))
	assert.Equal(t, relay.ChooseTossCaller{Caller: entity.Player1, CallerName: "Alice"}, find[relay.ChooseTossCaller](t, rec, "a"))

	err := manager.Dispatch(ctx, "b", &relay.JoinRoom{Name: "Bob", RoomID: "WXYZ"})
	require.ErrorIs(t, err, apperror.ErrRoomFull)

	// When: Alice calls head and loses the toss
	rec.Reset()
	require.NoError(t, manager.Dispatch(ctx, "a", &relay.TossChoice{RoomID: "WXYZ", Player: entity.Player1, Choice: "head"}))

	// Then: the computer moves at once and hands the turn back
	assert.Equal(t, []string{"tossResult", "bothPlayersReady", "playerMove", "turnChanged"}, rec.Actions("a"))
	assert.Equal(t, entity.BotName, find[relay.PlayerMove](t, rec, "a").PlayerName)
	assert.Equal(t, entity.Player1, find[relay.TurnChanged](t, rec, "a").CurrentPlayer)

	// When: Alice keeps choosing her lowest open number
	for range entity.CellCount {
		var (
			number   int
			finished bool
		)
		inspect(t, ctx, manager, "WXYZ", func(room *entity.Room) {
			finished = room.IsFinished()
			if !finished {
				number = room.Board(entity.Player1).Remaining()[0]
			}
		})
		if finished {
			break
		}

		require.NoError(t, manager.Dispatch(ctx, "a", &relay.ChooseNumber{RoomID: "WXYZ", Number: number}))
	}

	// Then: the game reaches a winner
	winner := find[relay.GameWinner](t, rec, "a")
	assert.GreaterOrEqual(t, winner.Lines, entity.WinningLineCount)

	// When: Alice asks for a rematch
	rec.Reset()
	require.NoError(t, manager.Dispatch(ctx, "a", &relay.RequestRestart{RoomID: "WXYZ"}))

	// Then: the computer agrees without being asked
	assert.Equal(t, []string{"gameRestarted"}, rec.Actions("a"))
	snapshot, err := manager.Snapshot(ctx, "WXYZ")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOngoing, snapshot.Status)
}

func TestRoomManager_ExpireIdle(t *testing.T) {
	ctx := testContext(t)

	var (
		mu    sync.Mutex
		clock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	)
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(d)
	}

	manager, rec := newTestManager(t, managerSetup{
		codes: []string{"WXYZ", "ABCD"},
		opts:  Options{IdleTimeout: time.Minute},
	})
	manager.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}

	// Given: one room idle for 75s and another for 45s
	require.NoError(t, manager.Dispatch(ctx, "a", &relay.CreateRoom{Name: "Alice"}))
	advance(30 * time.Second)
	require.NoError(t, manager.Dispatch(ctx, "c", &relay.CreateRoom{Name: "Carol"}))
	advance(45 * time.Second)

	// When: idle rooms are expired
	expired := manager.ExpireIdle(ctx)

	// Then: only the stale room is closed and its participant is told why
	assert.Equal(t, 1, expired)
	assert.Equal(t, relay.RoomClosed{Reason: "idle"}, find[relay.RoomClosed](t, rec, "a"))
	assert.NotContains(t, rec.Actions("c"), "roomClosed")

	_, err := manager.Snapshot(ctx, "WXYZ")
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)

	_, err = manager.Snapshot(ctx, "ABCD")
	require.NoError(t, err)

	t.Run("Disabled timeout never expires", func(t *testing.T) {
		manager.opts.IdleTimeout = 0
		advance(time.Hour)

		assert.Zero(t, manager.ExpireIdle(ctx))
	})
}
