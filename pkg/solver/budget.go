package solver

import "github.com/matzehuels/slotfit/pkg/config"

// DefaultBudget is used when no tier applies.
const DefaultBudget = 2000

// Budget returns the number of state expansions allowed for n notes under
// the configured tiers.
func Budget(cfg config.Solver, n int) int {
	if b := cfg.Attempts(n); b > 0 {
		return b
	}
	return DefaultBudget
}
