// Package region holds the static 15-node territory graph. The node set and
// adjacency never change over the life of the process, so everything here is
// safe to share across rooms without synchronization.
package region

import "github.com/samber/lo"

type Name string

const (
	Alpha   Name = "Alpha"
	Delta   Name = "Delta"
	Epsilon Name = "Epsilon"
	Zeta    Name = "Zeta"
	Eta     Name = "Eta"
	Theta   Name = "Theta"
	Kappa   Name = "Kappa"
	Lambda  Name = "Lambda"
	Mu      Name = "Mu"
	Nu      Name = "Nu"
	Omicron Name = "Omicron"
	Pi      Name = "Pi"
	Rho     Name = "Rho"
	Sigma   Name = "Sigma"
	Omega   Name = "Omega"
)

var all = []Name{
	Alpha, Delta, Epsilon, Zeta, Eta, Theta, Kappa, Lambda,
	Mu, Nu, Omicron, Pi, Rho, Sigma, Omega,
}

// Homes are the three fixed base regions handed out during settlement.
var Homes = []Name{Rho, Omega, Theta}

var adjacency = map[Name][]Name{
	Alpha:   {Sigma, Zeta, Epsilon, Pi, Omicron, Nu, Mu, Eta},
	Delta:   {Theta, Eta, Mu, Omicron},
	Epsilon: {Alpha, Zeta, Kappa, Rho, Pi},
	Zeta:    {Alpha, Sigma, Epsilon},
	Eta:     {Alpha, Sigma, Delta, Theta, Mu},
	Theta:   {Eta, Delta},
	Kappa:   {Omega, Lambda, Rho, Epsilon},
	Lambda:  {Omega, Kappa, Rho},
	Mu:      {Alpha, Delta, Eta, Omicron, Nu},
	Nu:      {Alpha, Mu},
	Omicron: {Alpha, Delta, Mu, Pi, Rho},
	Pi:      {Alpha, Rho, Epsilon, Omicron},
	Rho:     {Lambda, Kappa, Epsilon, Pi, Omicron},
	Sigma:   {Alpha, Eta, Zeta},
	Omega:   {Kappa, Lambda},
}

// Names returns every region name. The returned slice is a copy.
func Names() []Name {
	out := make([]Name, len(all))
	copy(out, all)
	return out
}

func Count() int { return len(all) }

// Valid reports whether n is one of the 15 regions.
func Valid(n Name) bool {
	_, ok := adjacency[n]
	return ok
}

// Neighbors returns the adjacency set of n. The returned slice must not be
// mutated by callers.
func Neighbors(n Name) []Name {
	return adjacency[n]
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b Name) bool {
	return lo.Contains(adjacency[a], b)
}

// AdjacentToAny reports whether candidate borders at least one region in owned.
func AdjacentToAny(candidate Name, owned []Name) bool {
	return lo.SomeBy(owned, func(o Name) bool {
		return Adjacent(o, candidate)
	})
}
