package combat_test

import (
	"fmt"

	"github.com/cory-johannsen/rolling/internal/game/character"
)

// scriptedSource replays queued draws. Intn returns 0 and Float64 returns
// 0.5 once their queues are empty. Shuffle keeps the order.
type scriptedSource struct {
	ints   []int
	floats []float64
}

func (s *scriptedSource) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		panic(fmt.Sprintf("scripted draw %d out of range [0,%d)", v, n))
	}
	return v
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.5
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedSource) Shuffle(int, func(i, j int)) {}

func zeros(n int) []int { return make([]int, n) }

func fighter(id string) *character.Character {
	return &character.Character{
		ID:           id,
		Name:         id,
		Alive:        true,
		World:        here,
		LifePoints:   10,
		ActionPoints: 24,
	}
}

var here = character.WorldCoord{Row: 3, Col: 4}
