package service

import (
	"errors"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/pkg"
)

var ErrNoAvailableMoves = errors.New("no available moves")

const (
	nearlyDoneStruck = 4
	startedStruck    = 2
)

type BotService interface {
	PickNumber(board *entity.Board) (int, error)
}

type botService struct {
	src pkg.Source
}

func NewBotService(src pkg.Source) BotService {
	return &botService{
		src: src,
	}
}

// PickNumber - prefers numbers that finish or advance lines already under way.
func (that *botService) PickNumber(board *entity.Board) (int, error) {
	remaining := board.Remaining()
	if len(remaining) == 0 {
		return 0, ErrNoAvailableMoves
	}

	scores := make(map[int]int)
	for line, cells := range entity.Lines {
		var weight int
		switch struck := board.StruckCount(line); {
		case struck >= nearlyDoneStruck:
			weight = 2
		case struck >= startedStruck:
			weight = 1
		default:
			continue
		}

		for _, cell := range cells {
			if !board.Struck[cell] {
				scores[board.Numbers[cell]] += weight
			}
		}
	}

	if len(scores) == 0 {
		return remaining[that.src.IntN(len(remaining))], nil
	}

	best, bestScore := remaining[0], -1
	for _, n := range remaining {
		if scores[n] > bestScore {
			best, bestScore = n, scores[n]
		}
	}

	return best, nil
}
