package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

const roomKeyPrefix = "room:"

type RoomRepository interface {
	Save(ctx context.Context, snapshot *entity.RoomSnapshot) error
	GetByCode(ctx context.Context, code string) (*entity.RoomSnapshot, error)
	DeleteByCode(ctx context.Context, code string) error
}

type dbRoom struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomRepository - snapshots expire after ttl, zero keeps them until deleted.
func NewRoomRepository(client *redis.Client, ttl time.Duration) RoomRepository {
	return &dbRoom{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbRoom) Save(ctx context.Context, snapshot *entity.RoomSnapshot) error {
	roomJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	err = that.client.Set(ctx, roomKeyPrefix+snapshot.Code, roomJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (that *dbRoom) GetByCode(ctx context.Context, code string) (*entity.RoomSnapshot, error) {
	response, err := that.client.Get(ctx, roomKeyPrefix+code).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	if err != nil {
		return nil, fmt.Errorf("%w by code", err)
	}

	var snapshot entity.RoomSnapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &snapshot, nil
}

func (that *dbRoom) DeleteByCode(ctx context.Context, code string) error {
	if err := that.client.Del(ctx, roomKeyPrefix+code).Err(); err != nil {
		return fmt.Errorf("failed to delete room by code: %w", err)
	}

	return nil
}
