package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/pkg"
	"github.com/rocketscienceinc/bingo-backend/internal/relay"
	"github.com/rocketscienceinc/bingo-backend/internal/service"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recorder is a Publisher that keeps every event per handle.
type recorder struct {
	mu     sync.Mutex
	events map[string][]relay.Event
}

func newRecorder() *recorder {
	return &recorder{events: make(map[string][]relay.Event)}
}

func (that *recorder) Publish(handle string, event relay.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events[handle] = append(that.events[handle], event)
}

func (that *recorder) Events(handle string) []relay.Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]relay.Event(nil), that.events[handle]...)
}

func (that *recorder) Actions(handle string) []string {
	events := that.Events(handle)

	actions := make([]string, 0, len(events))
	for _, event := range events {
		actions = append(actions, event.Action())
	}

	return actions
}

func (that *recorder) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = make(map[string][]relay.Event)
}

// find returns the last event of type T published to handle.
func find[T relay.Event](t *testing.T, rec *recorder, handle string) T {
	t.Helper()

	events := rec.Events(handle)
	for i := len(events) - 1; i >= 0; i-- {
		if event, ok := events[i].(T); ok {
			return event
		}
	}

	var zero T
	t.Fatalf("no %T published to %s, got %v", zero, handle, rec.Actions(handle))

	return zero
}

// scriptedSource replays values in order, then returns zeros.
type scriptedSource struct {
	mu     sync.Mutex
	values []int
}

func (that *scriptedSource) IntN(n int) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.values) == 0 {
		return 0
	}

	v := that.values[0] % n
	that.values = that.values[1:]

	return v
}

func orderedBoard() *entity.Board {
	numbers := make([]int, entity.CellCount)
	for i := range numbers {
		numbers[i] = i + 1
	}

	board, err := entity.NewBoard(numbers, entity.ClassicPool)
	if err != nil {
		panic(err)
	}

	return board
}

type roomRepoMock struct {
	mock.Mock
}

func (that *roomRepoMock) Save(ctx context.Context, snapshot *entity.RoomSnapshot) error {
	return that.Called(ctx, snapshot).Error(0)
}

func (that *roomRepoMock) DeleteByCode(ctx context.Context, code string) error {
	return that.Called(ctx, code).Error(0)
}

type resultRepoMock struct {
	mock.Mock
}

func (that *resultRepoMock) Record(ctx context.Context, result *entity.MatchResult) error {
	return that.Called(ctx, result).Error(0)
}

type managerSetup struct {
	tossValues []int
	codes      []string
	opts       Options
	roomRepo   roomRepo
	resultRepo resultRepo
}

// newTestManager builds a manager with ordered boards and a scripted toss.
func newTestManager(t *testing.T, setup managerSetup) (*RoomManager, *recorder) {
	t.Helper()

	rec := newRecorder()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	if setup.opts.NumberPool == 0 {
		setup.opts.NumberPool = entity.ClassicPool
	}

	manager := NewRoomManager(
		logger,
		rec,
		setup.roomRepo,
		setup.resultRepo,
		service.NewTossService(&scriptedSource{values: setup.tossValues}),
		service.NewBotService(pkg.NewSource(1)),
		pkg.NewSource(3),
		setup.opts,
	)

	codes := setup.codes
	if len(codes) == 0 {
		codes = []string{"WXYZ"}
	}

	var mu sync.Mutex
	manager.newCode = func() string {
		mu.Lock()
		defer mu.Unlock()

		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}

		return code
	}
	manager.newBoard = orderedBoard

	return manager, rec
}

// startRoom creates WXYZ for Alice ("a"), seats Bob ("b") and resolves the toss
// so that starter moves first. Toss values must put Alice on the call.
func startRoom(t *testing.T, ctx context.Context, manager *RoomManager, call string) {
	t.Helper()

	require.NoError(t, manager.Dispatch(ctx, "a", &relay.CreateRoom{Name: "Alice"}))
	require.NoError(t, manager.Dispatch(ctx, "b", &relay.JoinRoom{Name: "Bob", RoomID: "WXYZ"}))
	require.NoError(t, manager.Dispatch(ctx, "a", &relay.TossChoice{RoomID: "WXYZ", Player: entity.Player1, Choice: call}))
}

func handleOf(player int) string {
	if player == entity.Player1 {
		return "a"
	}
	return "b"
}

func inspect(t *testing.T, ctx context.Context, manager *RoomManager, code string, fn func(room *entity.Room)) {
	t.Helper()

	actor := manager.lookup(code)
	require.NotNil(t, actor, "room %s is not live", code)

	require.NoError(t, actor.do(ctx, func() error {
		fn(actor.room)
		return nil
	}))
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	return ctx
}
