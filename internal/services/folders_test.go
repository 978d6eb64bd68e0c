package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/casetree-backend/internal/data/repos/testutil"
	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
)

func moveInput(f *types.Folder, parent *int64) FolderInput {
	return FolderInput{Name: f.Name, Detail: f.Detail, ProjectID: f.ProjectID, ParentFolderID: parent}
}

func TestMoveFolderRejectsSelfAndDescendant(t *testing.T) {
	e := newTestEnv(t)
	p := testutil.SeedProject(t, e.ctx, e.db, 1)
	f := testutil.SeedFolder(t, e.ctx, e.db, p.ID, nil, "F")
	g := testutil.SeedFolder(t, e.ctx, e.db, p.ID, &f.ID, "G")
	h := testutil.SeedFolder(t, e.ctx, e.db, p.ID, &g.ID, "H")

	_, err := e.folders.MoveFolder(e.dbc(), f.ID, moveInput(f, &f.ID))
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrInvalidMove)
	assert.Equal(t, 400, apierr.StatusOf(err))

	for _, target := range []int64{g.ID, h.ID} {
		_, err := e.folders.MoveFolder(e.dbc(), f.ID, moveInput(f, &target))
		require.Error(t, err)
		assert.ErrorIs(t, err, apierr.ErrInvalidMove)
	}

	var got types.Folder
	require.NoError(t, e.db.First(&got, f.ID).Error)
	assert.Nil(t, got.ParentFolderID)
}

func TestMoveFolderKeepsTreeAcyclic(t *testing.T) {
	e := newTestEnv(t)
	p := testutil.SeedProject(t, e.ctx, e.db, 1)
	root := testutil.SeedFolder(t, e.ctx, e.db, p.ID, nil, "root")
	a := testutil.SeedFolder(t, e.ctx, e.db, p.ID, &root.ID, "a")
	b := testutil.SeedFolder(t, e.ctx, e.db, p.ID, &root.ID, "b")
	c := testutil.SeedFolder(t, e.ctx, e.db, p.ID, &a.ID, "c")

	moves := []struct {
		folder *types.Folder
		parent *int64
	}{
		{b, &c.ID},
		{a, &b.ID}, // rejected, b is under a
		{c, nil},
		{a, &b.ID},
		{c, &a.ID}, // rejected, a is under c
		{root, &a.ID},
		{b, &root.ID}, // rejected, root is under b
	}
	for _, m := range moves {
		_, _ = e.folders.MoveFolder(e.dbc(), m.folder.ID, moveInput(m.folder, m.parent))
	}

	folders, err := e.folders.ListFolders(e.dbc(), p.ID)
	require.NoError(t, err)
	parents := map[int64]*int64{}
	for _, f := range folders {
		parents[f.ID] = f.ParentFolderID
	}
	for id := range parents {
		hops, cur := 0, parents[id]
		for cur != nil {
			hops++
			require.LessOrEqual(t, hops, len(parents), "folder %d has a cyclic ancestor chain", id)
			cur = parents[*cur]
		}
	}
}

func TestMoveFolderUpdatesFields(t *testing.T) {
	e := newTestEnv(t)
	p := testutil.SeedProject(t, e.ctx, e.db, 1)
	a := testutil.SeedFolder(t, e.ctx, e.db, p.ID, nil, "a")
	b := testutil.SeedFolder(t, e.ctx, e.db, p.ID, nil, "b")

	out, err := e.folders.MoveFolder(e.dbc(), b.ID, FolderInput{Name: " renamed ", Detail: "d", ProjectID: p.ID, ParentFolderID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, "renamed", out.Name)
	assert.Equal(t, "d", out.Detail)
	require.NotNil(t, out.ParentFolderID)
	assert.Equal(t, a.ID, *out.ParentFolderID)

	out, err = e.folders.MoveFolder(e.dbc(), b.ID, FolderInput{Name: "renamed", ProjectID: p.ID})
	require.NoError(t, err)
	assert.Nil(t, out.ParentFolderID)
}

func TestMoveFolderErrors(t *testing.T) {
	e := newTestEnv(t)
	p := testutil.SeedProject(t, e.ctx, e.db, 1)
	other := testutil.SeedProject(t, e.ctx, e.db, 1)
	a := testutil.SeedFolder(t, e.ctx, e.db, p.ID, nil, "a")
	x := testutil.SeedFolder(t, e.ctx, e.db, other.ID, nil, "x")

	_, err := e.folders.MoveFolder(e.dbc(), 9999, FolderInput{Name: "n", ProjectID: p.ID})
	assert.True(t, apierr.IsNotFound(err))

	_, err = e.folders.MoveFolder(e.dbc(), a.ID, FolderInput{Name: "a", ProjectID: p.ID, ParentFolderID: &x.ID})
	assert.True(t, apierr.IsValidation(err))

	_, err = e.folders.MoveFolder(e.dbc(), a.ID, FolderInput{Name: "a", ProjectID: other.ID})
	assert.True(t, apierr.IsValidation(err))

	_, err = e.folders.MoveFolder(e.dbc(), a.ID, FolderInput{Name: "", ProjectID: p.ID})
	assert.True(t, apierr.IsValidation(err))
}

func TestDeleteFolderSoftDeletesCasesAndRemovesSubtree(t *testing.T) {
	e := newTestEnv(t)
	p := testutil.SeedProject(t, e.ctx, e.db, 1)
	f := testutil.SeedFolder(t, e.ctx, e.db, p.ID, nil, "F")
	g := testutil.SeedFolder(t, e.ctx, e.db, p.ID, &f.ID, "G")
	x := testutil.SeedFolder(t, e.ctx, e.db, p.ID, nil, "X")
	inG := testutil.SeedCase(t, e.ctx, e.db, g.ID, "C")
	inF := testutil.SeedCase(t, e.ctx, e.db, f.ID, "D")
	inX := testutil.SeedCase(t, e.ctx, e.db, x.ID, "E")
	testutil.SeedStep(t, e.ctx, e.db, inG.ID, "step", nil, 1)

	require.NoError(t, e.folders.DeleteFolder(e.ctx, f.ID))

	assert.False(t, e.folderExists(t, f.ID))
	assert.False(t, e.folderExists(t, g.ID))
	assert.True(t, e.folderExists(t, x.ID))

	assert.True(t, e.reloadCase(t, inG.ID).IsDeleted)
	assert.True(t, e.reloadCase(t, inF.ID).IsDeleted)
	assert.False(t, e.reloadCase(t, inX.ID).IsDeleted)
	assert.Equal(t, int64(1), e.count(t, &types.CaseStep{}), "case rows and their steps survive")

	// enforcement is back on
	assert.Error(t, e.db.Create(&types.Folder{Name: "orphan", ProjectID: 424242}).Error)
}

func TestDeleteFolderMissing(t *testing.T) {
	e := newTestEnv(t)
	err := e.folders.DeleteFolder(e.ctx, 12345)
	assert.True(t, apierr.IsNotFound(err))
}

func TestCreateFolder(t *testing.T) {
	e := newTestEnv(t)
	p := testutil.SeedProject(t, e.ctx, e.db, 1)
	root, err := e.folders.CreateFolder(e.dbc(), FolderInput{Name: "root", ProjectID: p.ID})
	require.NoError(t, err)

	child, err := e.folders.CreateFolder(e.dbc(), FolderInput{Name: "child", ProjectID: p.ID, ParentFolderID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *child.ParentFolderID)

	_, err = e.folders.CreateFolder(e.dbc(), FolderInput{Name: "lost", ProjectID: p.ID, ParentFolderID: ptr(777)})
	assert.True(t, apierr.IsNotFound(err))

	ids, err := e.folders.DescendantIDs(e.dbc(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{root.ID, child.ID}, ids)
}
