package service

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/pkg"
)

type CoinSide string

const (
	Head  CoinSide = "head"
	Tails CoinSide = "tails"
)

// ParseCoinSide - accepts exactly "head" or "tails", case-insensitive.
func ParseCoinSide(choice string) (CoinSide, error) {
	switch side := CoinSide(strings.ToLower(strings.TrimSpace(choice))); side {
	case Head, Tails:
		return side, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidTossChoice, choice)
	}
}

// TossResult - outcome of a called toss.
type TossResult struct {
	ServerChoice   CoinSide
	PlayerChoice   CoinSide
	Caller         int
	TossWinner     int
	StartingPlayer int
}

type TossService interface {
	PickCaller() int
	Resolve(caller int, call CoinSide) TossResult
	PickStarter() int
}

type tossService struct {
	src pkg.Source
}

func NewTossService(src pkg.Source) TossService {
	return &tossService{
		src: src,
	}
}

// PickCaller - designates which player calls the toss.
func (that *tossService) PickCaller() int {
	return that.pickPlayer()
}

// Resolve - flips the coin independently of the call. The caller starts on a correct call.
func (that *tossService) Resolve(caller int, call CoinSide) TossResult {
	outcome := that.flip()

	winner := caller
	if call != outcome {
		winner = entity.Opponent(caller)
	}

	return TossResult{
		ServerChoice:   outcome,
		PlayerChoice:   call,
		Caller:         caller,
		TossWinner:     winner,
		StartingPlayer: winner,
	}
}

// PickStarter - chooses the starting player directly, used on restart.
func (that *tossService) PickStarter() int {
	return that.pickPlayer()
}

func (that *tossService) flip() CoinSide {
	if that.src.IntN(2) == 0 {
		return Head
	}
	return Tails
}

func (that *tossService) pickPlayer() int {
	return entity.Player1 + that.src.IntN(2)
}
