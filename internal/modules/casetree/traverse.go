package casetree

import (
	"context"
	"sort"
)

// ChildrenFunc returns the ids of every node whose parent is in parents.
type ChildrenFunc func(ctx context.Context, parents []int64) ([]int64, error)

// ParentFunc returns the parent of id, nil for a root. found is false when id
// does not exist.
type ParentFunc func(ctx context.Context, id int64) (parent *int64, found bool, err error)

// Descendants returns root followed by every node reachable through child
// links, breadth first, one children lookup per level.
func Descendants(ctx context.Context, root int64, children ChildrenFunc) ([]int64, error) {
	out := []int64{root}
	seen := map[int64]struct{}{root: {}}
	frontier := []int64{root}
	for len(frontier) > 0 {
		kids, err := children(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0:0]
		for _, id := range kids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
			frontier = append(frontier, id)
		}
	}
	return out, nil
}

// HasAncestor walks the parent chain upward from start and reports whether it
// passes through ancestor. start itself counts. The walk ends at a root, at a
// missing node, or at a node already visited.
func HasAncestor(ctx context.Context, start, ancestor int64, parentOf ParentFunc) (bool, error) {
	visited := map[int64]struct{}{}
	current := start
	for {
		if current == ancestor {
			return true, nil
		}
		if _, loop := visited[current]; loop {
			return false, nil
		}
		visited[current] = struct{}{}

		parent, found, err := parentOf(ctx, current)
		if err != nil {
			return false, err
		}
		if !found || parent == nil {
			return false, nil
		}
		current = *parent
	}
}

// Preorder arranges records parent-first, siblings by stepNo then id.
// Records whose parent is not among them are treated as roots.
func Preorder(records []StepRecord) []StepRecord {
	byID := make(map[int64]struct{}, len(records))
	for _, r := range records {
		byID[r.ID] = struct{}{}
	}
	children := map[int64][]StepRecord{}
	var roots []StepRecord
	for _, r := range records {
		if r.ParentStepID != nil {
			if _, ok := byID[*r.ParentStepID]; ok {
				children[*r.ParentStepID] = append(children[*r.ParentStepID], r)
				continue
			}
		}
		roots = append(roots, r)
	}
	less := func(s []StepRecord) func(i, j int) bool {
		return func(i, j int) bool {
			if s[i].CaseSteps.StepNo != s[j].CaseSteps.StepNo {
				return s[i].CaseSteps.StepNo < s[j].CaseSteps.StepNo
			}
			return s[i].ID < s[j].ID
		}
	}
	sort.SliceStable(roots, less(roots))
	for k, kids := range children {
		sort.SliceStable(kids, less(kids))
		children[k] = kids
	}

	out := make([]StepRecord, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	stack := make([]StepRecord, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
		kids := children[r.ID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}
