package engine

import (
	"github.com/samber/lo"

	"github.com/jhavelka/conquest-backend/internal/region"
)

// free returns regions owned by nobody.
func (s *State) free() []region.Name {
	return lo.Filter(region.Names(), func(r region.Name, _ int) bool {
		return s.OwnerOf(r) == 0
	})
}

// AvailableForExpansion returns the regions player may pick this expansion
// turn: unowned, not already claimed earlier in the round, and adjacent to
// something the player owns. A player with no regions may pick anywhere, and
// if no adjacent region is free the full unclaimed set is offered so an
// active player always has a legal move.
func (s *State) AvailableForExpansion(player int, claimed map[region.Name]bool) []region.Name {
	unclaimed := lo.Filter(s.free(), func(r region.Name, _ int) bool {
		return !claimed[r]
	})

	owned := s.Owned[player]
	if len(owned) == 0 {
		return unclaimed
	}

	adjacent := lo.Filter(unclaimed, func(r region.Name, _ int) bool {
		return region.AdjacentToAny(r, owned)
	})
	if len(adjacent) > 0 {
		return adjacent
	}
	return unclaimed
}

// AvailableForConquest returns every unowned region; conquest ignores
// adjacency because the numeric quiz already decided priority.
func (s *State) AvailableForConquest() []region.Name {
	return s.free()
}

// AvailableEnemyRegions returns regions owned by the other players that
// border at least one of the attacker's regions. Empty means the attacker has
// no legal attack and the turn is skipped.
func (s *State) AvailableEnemyRegions(attacker int) []region.Name {
	owned := s.Owned[attacker]
	var out []region.Name
	for p := 1; p <= PlayerCount; p++ {
		if p == attacker {
			continue
		}
		for _, r := range s.Owned[p] {
			if region.AdjacentToAny(r, owned) {
				out = append(out, r)
			}
		}
	}
	return out
}
