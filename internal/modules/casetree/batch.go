package casetree

// Batch is a step-edit batch partitioned by tag, preserving input order within
// each partition.
type Batch struct {
	Unchanged []StepRecord
	Updated   []StepRecord
	Deleted   []StepRecord
	Created   []StepRecord

	tempIDs map[int64]struct{}
}

func Partition(edits []Edit) Batch {
	b := Batch{tempIDs: map[int64]struct{}{}}
	for _, e := range edits {
		switch v := e.(type) {
		case Unchanged:
			b.Unchanged = append(b.Unchanged, v.Rec)
		case Updated:
			b.Updated = append(b.Updated, v.Rec)
		case Deleted:
			b.Deleted = append(b.Deleted, v.Rec)
		case Created:
			b.Created = append(b.Created, v.Rec)
			b.tempIDs[v.TempID()] = struct{}{}
		}
	}
	return b
}

// IsTempRef reports whether id names a not-yet-persisted step: either the
// temporary id of a record created in this batch, or a non-positive id, which
// the store never assigns.
func (b Batch) IsTempRef(id int64) bool {
	if id <= 0 {
		return true
	}
	_, ok := b.tempIDs[id]
	return ok
}

// HasMutations is false when every record is unchanged.
func (b Batch) HasMutations() bool {
	return len(b.Updated)+len(b.Deleted)+len(b.Created) > 0
}
