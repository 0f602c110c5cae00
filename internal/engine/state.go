// Package engine holds the pure game state of one room: region ownership,
// region values, defense bonuses and base lives. Nothing in here does I/O,
// sleeps or broadcasts; the scenario layer drives mutations and the room layer
// owns the locking.
package engine

import (
	"slices"

	"github.com/samber/lo"

	"github.com/jhavelka/conquest-backend/internal/region"
)

const (
	PlayerCount   = 3
	StartingLives = 3

	// Region values by how the region was acquired.
	ValueBase      = 1000
	ValueExpansion = 200
	ValueConquest  = 300
	ValueCaptured  = 400

	DefenseBonus = 100
)

type State struct {
	Bases   map[int]region.Name
	Owned   map[int][]region.Name
	Values  map[region.Name]int
	Bonuses map[int]int
	Lives   map[int]int
}

func NewState() *State {
	s := &State{
		Bases:   make(map[int]region.Name, PlayerCount),
		Owned:   make(map[int][]region.Name, PlayerCount),
		Values:  make(map[region.Name]int, region.Count()),
		Bonuses: make(map[int]int, PlayerCount),
		Lives:   make(map[int]int, PlayerCount),
	}
	for _, r := range region.Names() {
		s.Values[r] = 0
	}
	for p := 1; p <= PlayerCount; p++ {
		s.Owned[p] = []region.Name{}
		s.Bonuses[p] = 0
		s.Lives[p] = StartingLives
	}
	return s
}

// Scores recomputes every player's score from scratch: the sum of the values
// of owned regions plus the accumulated defense bonus. Idempotent.
func (s *State) Scores() map[int]int {
	scores := make(map[int]int, PlayerCount)
	for p := 1; p <= PlayerCount; p++ {
		total := s.Bonuses[p]
		for _, r := range s.Owned[p] {
			total += s.Values[r]
		}
		scores[p] = total
	}
	return scores
}

// OwnerOf returns the player owning r, or 0 if unowned.
func (s *State) OwnerOf(r region.Name) int {
	for p := 1; p <= PlayerCount; p++ {
		if slices.Contains(s.Owned[p], r) {
			return p
		}
	}
	return 0
}

func (s *State) OccupiedCount() int {
	n := 0
	for p := 1; p <= PlayerCount; p++ {
		n += len(s.Owned[p])
	}
	return n
}

// Winner returns the player owning every region, or 0 while the map is
// still contested.
func (s *State) Winner() int {
	for p := 1; p <= PlayerCount; p++ {
		if len(s.Owned[p]) == region.Count() {
			return p
		}
	}
	return 0
}

// Eliminated lists players left with zero owned regions.
func (s *State) Eliminated() []int {
	var out []int
	for p := 1; p <= PlayerCount; p++ {
		if len(s.Owned[p]) == 0 {
			out = append(out, p)
		}
	}
	return out
}

// AssignBase records player's home region without settling it: the base keeps
// value 0 until SettleBase runs on client confirmation.
func (s *State) AssignBase(player int, r region.Name) {
	s.Bases[player] = r
	if !slices.Contains(s.Owned[player], r) {
		s.Owned[player] = append(s.Owned[player], r)
	}
}

// SettleBase raises the player's base to its full value and makes sure it
// sits in the owned set.
func (s *State) SettleBase(player int) {
	base, ok := s.Bases[player]
	if !ok {
		return
	}
	s.Values[base] = ValueBase
	if !slices.Contains(s.Owned[player], base) {
		s.Owned[player] = append(s.Owned[player], base)
	}
}

// Capture hands r to player at the given value, removing it from the current
// owner first. Owned sets stay pairwise disjoint.
func (s *State) Capture(player int, r region.Name, value int) {
	if prev := s.OwnerOf(r); prev != 0 && prev != player {
		s.Owned[prev] = lo.Without(s.Owned[prev], r)
	}
	if !slices.Contains(s.Owned[player], r) {
		s.Owned[player] = append(s.Owned[player], r)
	}
	s.Values[r] = value
}

// AwardDefense grants the permanent +100 bonus for a successful defense.
func (s *State) AwardDefense(defender int) {
	s.Bonuses[defender] += DefenseBonus
}

// DropLife removes one base life and returns the remainder.
func (s *State) DropLife(defender int) int {
	s.Lives[defender]--
	return s.Lives[defender]
}

// TransferBase moves every region the defender owns to the attacker, resets
// the captured base to its post-capture value, and zeroes the defender's
// defense bonus. Returns the players eliminated as a result.
func (s *State) TransferBase(attacker, defender int) []int {
	base := s.Bases[defender]
	for _, r := range s.Owned[defender] {
		if !slices.Contains(s.Owned[attacker], r) {
			s.Owned[attacker] = append(s.Owned[attacker], r)
		}
		if r == base {
			s.Values[r] = ValueCaptured
		}
	}
	s.Owned[defender] = []region.Name{}
	s.Bonuses[defender] = 0
	return s.Eliminated()
}
