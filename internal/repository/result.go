package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

const (
	resultsKey = "results"
	winsKey    = "wins"
)

type ResultRepository interface {
	Record(ctx context.Context, result *entity.MatchResult) error
	Recent(ctx context.Context, limit int) ([]*entity.MatchResult, error)
	Wins(ctx context.Context) (map[string]int, error)
}

type dbResult struct {
	client  *redis.Client
	history int
}

// NewResultRepository - keeps the latest history results, newest first.
func NewResultRepository(client *redis.Client, history int) ResultRepository {
	return &dbResult{
		client:  client,
		history: history,
	}
}

func (that *dbResult) Record(ctx context.Context, result *entity.MatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, resultsKey, resultJSON)
		if that.history > 0 {
			pipe.LTrim(ctx, resultsKey, 0, int64(that.history-1))
		}
		if result.Winner != "" {
			pipe.HIncrBy(ctx, winsKey, result.Winner, 1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}

	return nil
}

func (that *dbResult) Recent(ctx context.Context, limit int) ([]*entity.MatchResult, error) {
	if limit <= 0 {
		return []*entity.MatchResult{}, nil
	}

	response, err := that.client.LRange(ctx, resultsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	results := make([]*entity.MatchResult, 0, len(response))
	for _, raw := range response {
		var result entity.MatchResult
		if err = json.Unmarshal([]byte(raw), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}

		results = append(results, &result)
	}

	return results, nil
}

func (that *dbResult) Wins(ctx context.Context) (map[string]int, error) {
	response, err := that.client.HGetAll(ctx, winsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get wins: %w", err)
	}

	wins := make(map[string]int, len(response))
	for name, raw := range response {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid win count for %s: %w", name, err)
		}

		wins[name] = count
	}

	return wins, nil
}
