package casetree

import "sort"

// SiblingRow is one case-step link as seen by Renumber.
type SiblingRow struct {
	CaseStepID   int64
	StepID       int64
	ParentStepID *int64
	StepNo       int
}

// Renumber makes stepNo contiguous from 1 within each parent, keeping the
// existing relative order (ties broken by step id). It returns only the rows
// whose number changes, keyed by case-step id.
func Renumber(rows []SiblingRow) map[int64]int {
	groups := map[int64][]SiblingRow{}
	const rootKey = int64(0)
	for _, r := range rows {
		key := rootKey
		if r.ParentStepID != nil {
			key = *r.ParentStepID
		}
		groups[key] = append(groups[key], r)
	}
	changes := map[int64]int{}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			if g[i].StepNo != g[j].StepNo {
				return g[i].StepNo < g[j].StepNo
			}
			return g[i].StepID < g[j].StepID
		})
		for i, r := range g {
			if want := i + 1; r.StepNo != want {
				changes[r.CaseStepID] = want
			}
		}
	}
	return changes
}
