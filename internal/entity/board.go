package entity

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/rocketscienceinc/bingo-backend/internal/pkg"
)

const (
	BoardSide = 5
	CellCount = BoardSide * BoardSide

	// ClassicPool is the number universe of the classic game: every board is a permutation of 1..25.
	ClassicPool = CellCount
	MaxPool     = 75

	// WinningLineCount is the number of completed lines that ends the game.
	WinningLineCount = 5
)

var ErrInvalidBoard = errors.New("invalid board")

// Lines - the 12 fixed winning patterns: 5 rows, 5 columns, 2 diagonals.
var Lines = [12][BoardSide]int{
	{0, 1, 2, 3, 4},
	{5, 6, 7, 8, 9},
	{10, 11, 12, 13, 14},
	{15, 16, 17, 18, 19},
	{20, 21, 22, 23, 24},
	{0, 5, 10, 15, 20},
	{1, 6, 11, 16, 21},
	{2, 7, 12, 17, 22},
	{3, 8, 13, 18, 23},
	{4, 9, 14, 19, 24},
	{0, 6, 12, 18, 24},
	{4, 8, 12, 16, 20},
}

// LineSet is the set of completed line indices of one player. It only grows.
type LineSet uint16

func (that *LineSet) Add(line int) {
	*that |= 1 << uint(line)
}

func (that LineSet) Has(line int) bool {
	return that&(1<<uint(line)) != 0
}

func (that LineSet) Len() int {
	return bits.OnesCount16(uint16(that))
}

func (that LineSet) Lines() []int {
	lines := make([]int, 0, that.Len())
	for i := range Lines {
		if that.Has(i) {
			lines = append(lines, i)
		}
	}

	return lines
}

// Board is a player's 5x5 arrangement of distinct numbers with monotonic struck flags.
type Board struct {
	Numbers [CellCount]int  `json:"numbers"`
	Struck  [CellCount]bool `json:"struck"`
}

// NewBoard - builds a board from 25 distinct numbers within [1, pool].
func NewBoard(numbers []int, pool int) (*Board, error) {
	if len(numbers) != CellCount {
		return nil, fmt.Errorf("%w: %d cells", ErrInvalidBoard, len(numbers))
	}

	seen := make(map[int]struct{}, CellCount)
	board := &Board{}

	for i, n := range numbers {
		if n < 1 || n > pool {
			return nil, fmt.Errorf("%w: number %d out of range", ErrInvalidBoard, n)
		}

		if _, ok := seen[n]; ok {
			return nil, fmt.Errorf("%w: duplicate number %d", ErrInvalidBoard, n)
		}

		seen[n] = struct{}{}
		board.Numbers[i] = n
	}

	return board, nil
}

// GenerateBoard - draws 25 distinct numbers uniformly from 1..pool in random order.
// Pools outside [ClassicPool, MaxPool] are clamped.
func GenerateBoard(src pkg.Source, pool int) *Board {
	pool = min(max(pool, ClassicPool), MaxPool)

	universe := make([]int, pool)
	for i := range universe {
		universe[i] = i + 1
	}

	// partial Fisher-Yates: only the first 25 positions are needed
	board := &Board{}
	for i := range CellCount {
		j := i + src.IntN(pool-i)
		universe[i], universe[j] = universe[j], universe[i]
		board.Numbers[i] = universe[i]
	}

	return board
}

// IndexOf - returns the cell holding number, or -1.
func (that *Board) IndexOf(number int) int {
	for i, n := range that.Numbers {
		if n == number {
			return i
		}
	}

	return -1
}

func (that *Board) Contains(number int) bool {
	return that.IndexOf(number) >= 0
}

func (that *Board) IsStruck(number int) bool {
	i := that.IndexOf(number)
	return i >= 0 && that.Struck[i]
}

// Strike - marks the cell holding number. Reports whether anything changed.
func (that *Board) Strike(number int) bool {
	i := that.IndexOf(number)
	if i < 0 || that.Struck[i] {
		return false
	}

	that.Struck[i] = true

	return true
}

func (that *Board) IsLineComplete(line int) bool {
	for _, cell := range Lines[line] {
		if !that.Struck[cell] {
			return false
		}
	}

	return true
}

// CompletedLines - returns the lines that are complete now but not yet in previous.
func (that *Board) CompletedLines(previous LineSet) []int {
	var completed []int

	for i := range Lines {
		if previous.Has(i) {
			continue
		}

		if that.IsLineComplete(i) {
			completed = append(completed, i)
		}
	}

	return completed
}

// StruckCount - returns how many cells of the line are struck.
func (that *Board) StruckCount(line int) int {
	count := 0
	for _, cell := range Lines[line] {
		if that.Struck[cell] {
			count++
		}
	}

	return count
}

// Remaining - returns the unstruck numbers in board order.
func (that *Board) Remaining() []int {
	remaining := make([]int, 0, CellCount)
	for i, n := range that.Numbers {
		if !that.Struck[i] {
			remaining = append(remaining, n)
		}
	}

	return remaining
}

func (that *Board) NumberList() []int {
	return append([]int(nil), that.Numbers[:]...)
}
