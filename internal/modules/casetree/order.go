package casetree

// OrderCreated orders records so each one follows its parent when that parent
// is created in the same batch. A record is ready when it has no parent, its
// parent is a persisted id, or its parent is a temporary id already emitted.
//
// If a pass over the remaining records emits nothing, the rest form a cycle or
// reference temporary ids missing from the batch. They are emitted as roots,
// with ParentStepID cleared, and their temporary ids returned in forced.
func OrderCreated(created []StepRecord, isTemp func(id int64) bool) (ordered []StepRecord, forced []int64) {
	ordered = make([]StepRecord, 0, len(created))
	emitted := make(map[int64]struct{}, len(created))
	remaining := append([]StepRecord(nil), created...)

	for len(remaining) > 0 {
		next := remaining[:0:0]
		for _, rec := range remaining {
			if ready(rec, emitted, isTemp) {
				ordered = append(ordered, rec)
				emitted[rec.ID] = struct{}{}
				continue
			}
			next = append(next, rec)
		}
		if len(next) == len(remaining) {
			for _, rec := range next {
				rec.ParentStepID = nil
				ordered = append(ordered, rec)
				forced = append(forced, rec.ID)
			}
			break
		}
		remaining = next
	}
	return ordered, forced
}

func ready(rec StepRecord, emitted map[int64]struct{}, isTemp func(int64) bool) bool {
	if rec.ParentStepID == nil {
		return true
	}
	parent := *rec.ParentStepID
	if !isTemp(parent) {
		return true
	}
	_, ok := emitted[parent]
	return ok
}

// ResolveParent rewrites a parent reference for insertion: temporary ids
// become the real id they were mapped to, or nil when not mapped yet.
func ResolveParent(parent *int64, idMap map[int64]int64, isTemp func(int64) bool) *int64 {
	if parent == nil {
		return nil
	}
	if !isTemp(*parent) {
		p := *parent
		return &p
	}
	if real, ok := idMap[*parent]; ok {
		return &real
	}
	return nil
}
