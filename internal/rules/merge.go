package rules

import (
	"github.com/MikeSquared-Agency/vantage/internal/profile"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// Merge combines the rule sets of ds into one configuration.
//
// Categorical attributes take the highest-ranked value among the disorders.
// Ties go to the disorder whose name sorts first, so the result does not
// depend on input order or duplicates. Boolean attributes are OR-ed. An
// empty set yields the neutral default. Unknown disorders are ignored.
func Merge(ds []profile.Disorder) ui.UIConfig {
	var contributing []ui.UIConfig
	for _, d := range profile.SortedDisorders(ds) {
		if r, ok := DisorderRules[d]; ok {
			contributing = append(contributing, r)
		}
	}
	if len(contributing) == 0 {
		return ui.NeutralDefault()
	}

	var out ui.UIConfig
	for _, a := range ui.CategoricalAttributes {
		best, bestRank := "", -1
		for _, r := range contributing {
			v, _ := r.Value(a)
			if rank := Rank(a, v); rank > bestRank {
				best, bestRank = v, rank
			}
		}
		out, _ = out.WithValue(a, best)
	}
	for _, a := range ui.BooleanAttributes {
		set := false
		for _, r := range contributing {
			if v, _ := r.Flag(a); v {
				set = true
				break
			}
		}
		out, _ = out.WithFlag(a, set)
	}
	return out
}
