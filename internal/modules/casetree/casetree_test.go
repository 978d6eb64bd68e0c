package casetree

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func decodeJSON(t *testing.T, raw string) ([]Edit, error) {
	t.Helper()
	var records []StepRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	return Decode(records)
}

func TestDecodeRejectsUnknownState(t *testing.T) {
	_, err := Decode([]StepRecord{{ID: 1, EditState: "renamed"}})
	require.Error(t, err)
}

func TestDecodeRejectsDuplicateTempIDs(t *testing.T) {
	_, err := decodeJSON(t, `[
		{"step":"a","editState":"new"},
		{"step":"b","editState":"new"}
	]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporary id 0")

	edits, err := decodeJSON(t, `[
		{"id":5,"editState":"changed"},
		{"id":5,"step":"b","editState":"new"}
	]`)
	require.NoError(t, err)
	assert.Len(t, edits, 2)
}

func TestDecodeRequiresPersistedIDForUpdates(t *testing.T) {
	_, err := Decode([]StepRecord{{ID: 0, EditState: EditStateChanged}})
	require.Error(t, err)
	_, err = Decode([]StepRecord{{ID: -3, EditState: EditStateDeleted}})
	require.Error(t, err)
}

func TestPartitionKeepsOrderAndTempIDs(t *testing.T) {
	edits, err := decodeJSON(t, `[
		{"id":10,"step":"a","editState":"notChanged"},
		{"id":0,"step":"b","editState":"new"},
		{"id":11,"step":"c","editState":"changed"},
		{"id":1,"step":"d","editState":"new","parentStepId":0},
		{"id":12,"editState":"deleted"}
	]`)
	require.NoError(t, err)

	b := Partition(edits)
	require.Len(t, b.Unchanged, 1)
	require.Len(t, b.Updated, 1)
	require.Len(t, b.Deleted, 1)
	require.Len(t, b.Created, 2)
	assert.Equal(t, "b", b.Created[0].Step)
	assert.Equal(t, "d", b.Created[1].Step)
	assert.True(t, b.HasMutations())

	assert.True(t, b.IsTempRef(0))
	assert.True(t, b.IsTempRef(1))
	assert.True(t, b.IsTempRef(-7))
	assert.False(t, b.IsTempRef(10))
}

func TestHasMutationsFalseForUnchangedOnly(t *testing.T) {
	b := Partition([]Edit{Unchanged{Rec: StepRecord{ID: 1}}, Unchanged{Rec: StepRecord{ID: 2}}})
	assert.False(t, b.HasMutations())
}

func TestOrderCreatedChildBeforeParent(t *testing.T) {
	created := []StepRecord{
		{ID: -1, Step: "child", ParentStepID: ptr(-2)},
		{ID: -2, Step: "parent"},
	}
	b := Partition([]Edit{Created{Rec: created[0]}, Created{Rec: created[1]}})

	ordered, forced := OrderCreated(b.Created, b.IsTempRef)
	require.Len(t, ordered, 2)
	assert.Empty(t, forced)
	assert.Equal(t, int64(-2), ordered[0].ID)
	assert.Equal(t, int64(-1), ordered[1].ID)
}

func TestOrderCreatedPersistedParentIsReady(t *testing.T) {
	created := []StepRecord{{ID: 1, ParentStepID: ptr(500)}}
	b := Partition([]Edit{Created{Rec: created[0]}})

	ordered, forced := OrderCreated(b.Created, b.IsTempRef)
	assert.Empty(t, forced)
	require.Len(t, ordered, 1)
	assert.Equal(t, int64(500), *ordered[0].ParentStepID)
}

func TestOrderCreatedForcesCyclesToRoot(t *testing.T) {
	created := []StepRecord{
		{ID: 1, ParentStepID: ptr(2)},
		{ID: 2, ParentStepID: ptr(1)},
		{ID: 3},
	}
	b := Partition([]Edit{Created{Rec: created[0]}, Created{Rec: created[1]}, Created{Rec: created[2]}})

	ordered, forced := OrderCreated(b.Created, b.IsTempRef)
	require.Len(t, ordered, 3)
	assert.Equal(t, int64(3), ordered[0].ID)
	assert.ElementsMatch(t, []int64{1, 2}, forced)
	assert.Nil(t, ordered[1].ParentStepID)
	assert.Nil(t, ordered[2].ParentStepID)
	// input untouched
	assert.NotNil(t, created[0].ParentStepID)
}

func TestResolveParent(t *testing.T) {
	isTemp := func(id int64) bool { return id <= 0 }
	idMap := map[int64]int64{-1: 42}

	assert.Nil(t, ResolveParent(nil, idMap, isTemp))
	assert.Equal(t, int64(42), *ResolveParent(ptr(-1), idMap, isTemp))
	assert.Nil(t, ResolveParent(ptr(-9), idMap, isTemp))
	assert.Equal(t, int64(7), *ResolveParent(ptr(7), idMap, isTemp))
}

type tree map[int64]*int64

func (tr tree) children(_ context.Context, parents []int64) ([]int64, error) {
	set := map[int64]bool{}
	for _, p := range parents {
		set[p] = true
	}
	var out []int64
	for id := int64(1); id <= int64(len(tr))+10; id++ {
		if p, ok := tr[id]; ok && p != nil && set[*p] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (tr tree) parent(_ context.Context, id int64) (*int64, bool, error) {
	p, ok := tr[id]
	return p, ok, nil
}

func TestDescendants(t *testing.T) {
	// 1 -> 2 -> 4, 1 -> 3, 5 standalone
	tr := tree{1: nil, 2: ptr(1), 3: ptr(1), 4: ptr(2), 5: nil}

	ids, err := Descendants(context.Background(), 1, tr.children)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)

	ids, err = Descendants(context.Background(), 5, tr.children)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)
}

func TestDescendantsStopsOnCorruptCycle(t *testing.T) {
	tr := tree{1: ptr(2), 2: ptr(1)}
	ids, err := Descendants(context.Background(), 1, tr.children)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)
}

func TestDescendantsPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Descendants(context.Background(), 1, func(context.Context, []int64) ([]int64, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestHasAncestor(t *testing.T) {
	tr := tree{1: nil, 2: ptr(1), 3: ptr(2), 4: nil}
	ctx := context.Background()

	ok, err := HasAncestor(ctx, 3, 1, tr.parent)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasAncestor(ctx, 1, 1, tr.parent)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasAncestor(ctx, 4, 1, tr.parent)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = HasAncestor(ctx, 99, 1, tr.parent)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasAncestorTerminatesOnCorruptLoop(t *testing.T) {
	tr := tree{1: ptr(2), 2: ptr(1)}
	ok, err := HasAncestor(context.Background(), 1, 9, tr.parent)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRenumber(t *testing.T) {
	rows := []SiblingRow{
		{CaseStepID: 1, StepID: 10, StepNo: 1},
		{CaseStepID: 2, StepID: 11, StepNo: 3},
		{CaseStepID: 3, StepID: 12, StepNo: 3},
		{CaseStepID: 4, StepID: 13, ParentStepID: ptr(10), StepNo: 5},
	}
	changes := Renumber(rows)
	assert.Equal(t, map[int64]int{2: 2, 4: 1}, changes)
}

func TestPreorder(t *testing.T) {
	recs := []StepRecord{
		{ID: 3, ParentStepID: ptr(1), CaseSteps: CaseStepInfo{StepNo: 2}},
		{ID: 1, CaseSteps: CaseStepInfo{StepNo: 1}},
		{ID: 5, CaseSteps: CaseStepInfo{StepNo: 2}},
		{ID: 2, ParentStepID: ptr(1), CaseSteps: CaseStepInfo{StepNo: 1}},
		{ID: 4, ParentStepID: ptr(99), CaseSteps: CaseStepInfo{StepNo: 3}},
	}
	var ids []int64
	for _, r := range Preorder(recs) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{1, 2, 3, 5, 4}, ids)
}
