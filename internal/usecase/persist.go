package usecase

import (
	"context"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

type persistJob struct {
	snapshot *entity.RoomSnapshot
	deleted  string
	result   *entity.MatchResult
}

// enqueue - hands a job to Run without ever blocking the room that produced it.
func (that *RoomManager) enqueue(job persistJob) {
	if that.roomRepo == nil && that.resultRepo == nil {
		return
	}

	select {
	case that.jobs <- job:
	default:
		that.logger.Warn("persistence queue is full, dropping job", "room", job.code())
	}
}

func (that *RoomManager) persist(ctx context.Context, job persistJob) {
	log := that.logger.With("method", "persist", "room", job.code())

	switch {
	case job.result != nil && that.resultRepo != nil:
		if err := that.resultRepo.Record(ctx, job.result); err != nil {
			log.Error("failed to record match result", "error", err)
		}
	case job.deleted != "" && that.roomRepo != nil:
		if err := that.roomRepo.DeleteByCode(ctx, job.deleted); err != nil {
			log.Error("failed to delete room", "error", err)
		}
	case job.snapshot != nil && that.roomRepo != nil:
		if err := that.roomRepo.Save(ctx, job.snapshot); err != nil {
			log.Error("failed to save room", "error", err)
		}
	}
}

func (that persistJob) code() string {
	switch {
	case that.result != nil:
		return that.result.RoomCode
	case that.snapshot != nil:
		return that.snapshot.Code
	default:
		return that.deleted
	}
}
