package engine

import "math/rand"

// PlanRounds is the fixed length of the expansion and battle phases.
const PlanRounds = 6

// Plan is a precomputed turn order for one phase: six rounds, each a
// permutation of the three player numbers. Generated once on phase entry and
// shared with clients so the UI can preview the order.
type Plan [][]int

var baseOrders = [][]int{
	{1, 2, 3},
	{2, 3, 1},
	{3, 1, 2},
	{2, 1, 3},
	{3, 2, 1},
	{1, 3, 2},
}

func NewPlan(rng *rand.Rand) Plan {
	plan := make(Plan, PlanRounds)
	for i := range plan {
		order := baseOrders[rng.Intn(len(baseOrders))]
		round := make([]int, len(order))
		copy(round, order)
		plan[i] = round
	}
	return plan
}
