package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/pkg"
	"github.com/rocketscienceinc/bingo-backend/internal/relay"
	"github.com/rocketscienceinc/bingo-backend/internal/service"
)

var errExpired = errors.New("room expired")

const (
	defaultQueueSize = 256
	maxNameLength    = 32
)

type roomRepo interface {
	Save(ctx context.Context, snapshot *entity.RoomSnapshot) error
	DeleteByCode(ctx context.Context, code string) error
}

type resultRepo interface {
	Record(ctx context.Context, result *entity.MatchResult) error
}

type Options struct {
	NumberPool  int
	IdleTimeout time.Duration
	QueueSize   int
}

// RoomManager is the process-wide registry of live rooms. Every room is driven
// by its own actor goroutine; the manager only routes commands to it.
type RoomManager struct {
	logger     *slog.Logger
	publisher  relay.Publisher
	roomRepo   roomRepo
	resultRepo resultRepo
	toss       service.TossService
	bot        service.BotService
	opts       Options

	newCode  func() string
	newBoard func() *entity.Board
	now      func() time.Time

	mu       sync.Mutex
	rooms    map[string]*roomActor
	sessions map[string]string

	jobs chan persistJob
}

func NewRoomManager(
	logger *slog.Logger,
	publisher relay.Publisher,
	roomRepo roomRepo,
	resultRepo resultRepo,
	toss service.TossService,
	bot service.BotService,
	src pkg.Source,
	opts Options,
) *RoomManager {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}

	return &RoomManager{
		logger:     logger.With("component", "room_manager"),
		publisher:  publisher,
		roomRepo:   roomRepo,
		resultRepo: resultRepo,
		toss:       toss,
		bot:        bot,
		opts:       opts,

		newCode: func() string {
			return pkg.GenerateRoomCode(src)
		},
		newBoard: func() *entity.Board {
			return entity.GenerateBoard(src, opts.NumberPool)
		},
		now: time.Now,

		rooms:    make(map[string]*roomActor),
		sessions: make(map[string]string),

		jobs: make(chan persistJob, opts.QueueSize),
	}
}

// Dispatch - routes a participant command to the room it concerns and waits until it is handled.
func (that *RoomManager) Dispatch(ctx context.Context, handle string, cmd relay.Command) error {
	switch cmd := cmd.(type) {
	case *relay.CreateRoom:
		return that.createRoom(handle, cmd)
	case *relay.JoinRoom:
		return that.joinRoom(ctx, handle, cmd)
	case *relay.TossChoice:
		return that.inRoom(ctx, handle, cmd.RoomID, func(actor *roomActor) error {
			return actor.tossChoice(handle, cmd)
		})
	case *relay.ChooseNumber:
		return that.inRoom(ctx, handle, cmd.RoomID, func(actor *roomActor) error {
			return actor.chooseNumber(handle, cmd)
		})
	case *relay.RequestRestart:
		return that.inRoom(ctx, handle, cmd.RoomID, func(actor *roomActor) error {
			return actor.requestRestart(handle)
		})
	case *relay.LeaveRoom:
		return that.inRoom(ctx, handle, cmd.RoomID, func(actor *roomActor) error {
			actor.leave(handle)
			return nil
		})
	default:
		return fmt.Errorf("%w: %T", relay.ErrUnknownAction, cmd)
	}
}

// Disconnect - drops the handle from its room, if any. The room does not survive it.
func (that *RoomManager) Disconnect(ctx context.Context, handle string) error {
	actor := that.actorOf(handle)
	if actor == nil {
		return nil
	}

	err := actor.do(ctx, func() error {
		if !actor.closed {
			actor.leave(handle)
		}
		return nil
	})
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return nil
	}

	return err
}

// Snapshot - returns the public view of a live room.
func (that *RoomManager) Snapshot(ctx context.Context, code string) (*entity.RoomSnapshot, error) {
	actor := that.lookup(normalizeCode(code))
	if actor == nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	var snapshot *entity.RoomSnapshot
	err := actor.do(ctx, func() error {
		if actor.closed {
			return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
		}

		snapshot = actor.room.Snapshot(that.now())
		return nil
	})

	return snapshot, err
}

// Run - drains the persistence queue and expires idle rooms until ctx is done.
func (that *RoomManager) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	var expire <-chan time.Time
	if that.opts.IdleTimeout > 0 {
		ticker := time.NewTicker(that.opts.IdleTimeout / 2)
		defer ticker.Stop()

		expire = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("room manager stopped")
			return nil
		case job := <-that.jobs:
			that.persist(ctx, job)
		case <-expire:
			if n := that.ExpireIdle(ctx); n > 0 {
				log.Info("expired idle rooms", "count", n)
			}
		}
	}
}

// ExpireIdle - closes every room with no activity for longer than the idle timeout.
func (that *RoomManager) ExpireIdle(ctx context.Context) int {
	if that.opts.IdleTimeout <= 0 {
		return 0
	}

	that.mu.Lock()
	actors := make([]*roomActor, 0, len(that.rooms))
	for _, actor := range that.rooms {
		actors = append(actors, actor)
	}
	that.mu.Unlock()

	deadline := that.now().Add(-that.opts.IdleTimeout)

	var expired int
	for _, actor := range actors {
		if !actor.idleSince(deadline) {
			continue
		}

		err := actor.do(ctx, func() error {
			if actor.closed || !actor.idleSince(deadline) {
				return nil
			}

			actor.expire()
			return errExpired
		})

		switch {
		case errors.Is(err, errExpired):
			expired++
		case err != nil && !errors.Is(err, apperror.ErrRoomNotFound):
			that.logger.Warn("failed to expire room", "room", actor.room.Code, "error", err)
		}
	}

	return expired
}

func (that *RoomManager) createRoom(handle string, cmd *relay.CreateRoom) error {
	name, err := normalizeName(cmd.Name)
	if err != nil {
		return err
	}

	roomType := entity.PrivateType
	if cmd.VsComputer {
		roomType = entity.WithBotType
	}

	actor, err := that.openRoom(handle, roomType)
	if err != nil {
		return err
	}

	// The actor goroutine is not running yet, so the creator is seated before anyone can reach the room.
	actor.touch()
	if err = actor.create(handle, name); err != nil {
		actor.close()
		return fmt.Errorf("failed to create room: %w", err)
	}
	actor.save()

	go actor.run()

	return nil
}

func (that *RoomManager) joinRoom(ctx context.Context, handle string, cmd *relay.JoinRoom) error {
	name, err := normalizeName(cmd.Name)
	if err != nil {
		return err
	}

	if code := that.sessionCode(handle); code != "" {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyInRoom, code)
	}

	actor := that.lookup(normalizeCode(cmd.RoomID))
	if actor == nil {
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, cmd.RoomID)
	}

	return actor.exec(ctx, func() error {
		return actor.join(handle, name)
	})
}

func (that *RoomManager) inRoom(ctx context.Context, handle, roomID string, fn func(actor *roomActor) error) error {
	actor := that.actorOf(handle)
	if actor == nil {
		return apperror.ErrNotInRoom
	}

	if roomID != "" && normalizeCode(roomID) != actor.room.Code {
		return fmt.Errorf("%w: %s", apperror.ErrNotInRoom, roomID)
	}

	return actor.exec(ctx, func() error {
		return fn(actor)
	})
}

// openRoom - registers a new room under a free code and binds its creator.
func (that *RoomManager) openRoom(handle, roomType string) (*roomActor, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if code, ok := that.sessions[handle]; ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrAlreadyInRoom, code)
	}

	code := that.newCode()
	for that.rooms[code] != nil {
		code = that.newCode()
	}

	actor := newRoomActor(that, entity.NewRoom(code, roomType))
	that.rooms[code] = actor
	that.sessions[handle] = code

	return actor, nil
}

func (that *RoomManager) bind(handle, code string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if bound, ok := that.sessions[handle]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyInRoom, bound)
	}

	that.sessions[handle] = code

	return nil
}

// release - forgets the room and every handle bound to it.
func (that *RoomManager) release(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, code)
	for handle, bound := range that.sessions {
		if bound == code {
			delete(that.sessions, handle)
		}
	}
}

func (that *RoomManager) lookup(code string) *roomActor {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.rooms[code]
}

func (that *RoomManager) sessionCode(handle string) string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.sessions[handle]
}

func (that *RoomManager) actorOf(handle string) *roomActor {
	that.mu.Lock()
	defer that.mu.Unlock()

	code, ok := that.sessions[handle]
	if !ok {
		return nil
	}

	return that.rooms[code]
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ErrInvalidName
	}

	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}

	return name, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
