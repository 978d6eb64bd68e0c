package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/data/repos"
	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/modules/casetree"
	"github.com/yungbote/casetree-backend/internal/observability"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type StepService interface {
	ListSteps(dbc dbctx.Context, caseID int64) ([]casetree.StepRecord, error)
	// ReconcileSteps applies one client edit batch to the case's step tree in
	// a single transaction and returns the resulting records, unchanged then
	// updated then created.
	ReconcileSteps(dbc dbctx.Context, caseID int64, records []casetree.StepRecord) ([]casetree.StepRecord, error)
}

type stepService struct {
	db    *gorm.DB
	log   *logger.Logger
	cases repos.CaseRepo
	steps repos.StepRepo
	links repos.CaseStepRepo
}

func NewStepService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cases repos.CaseRepo,
	steps repos.StepRepo,
	links repos.CaseStepRepo,
) StepService {
	return &stepService{
		db:    db,
		log:   baseLog.With("service", "StepService"),
		cases: cases,
		steps: steps,
		links: links,
	}
}

func (s *stepService) ListSteps(dbc dbctx.Context, caseID int64) ([]casetree.StepRecord, error) {
	c, err := s.cases.GetByID(dbc, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.NotFound("case")
	}
	links, err := s.links.ListByCase(dbc, caseID)
	if err != nil {
		return nil, err
	}
	return casetree.Preorder(toRecords(links)), nil
}

func (s *stepService) ReconcileSteps(dbc dbctx.Context, caseID int64, records []casetree.StepRecord) (out []casetree.StepRecord, err error) {
	ctx, span := observability.StartSpan(dbc.Ctx, "casetree.reconcile_steps",
		attribute.Int64("case_id", caseID),
		attribute.Int("records", len(records)),
	)
	defer func() { observability.EndSpan(span, err) }()
	dbc.Ctx = ctx

	if caseID <= 0 {
		return nil, apierr.Validation("caseId is required")
	}
	edits, err := casetree.Decode(records)
	if err != nil {
		return nil, apierr.Validation("%v", err)
	}
	batch := casetree.Partition(edits)

	if !batch.HasMutations() {
		c, err := s.cases.GetByID(dbc, caseID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, apierr.NotFound("case")
		}
		observability.Current().ObserveStepBatch("noop", 0, 0, 0)
		return settle(batch.Unchanged, nil), nil
	}

	err = dbctx.Run(dbc, s.db, func(dbc dbctx.Context) error {
		var txErr error
		out, txErr = s.reconcile(dbc, caseID, batch)
		return txErr
	})
	if err != nil {
		observability.Current().ObserveStepBatch("error", 0, 0, 0)
		s.log.Warn("step batch rolled back", "case_id", caseID, "error", err)
		return nil, err
	}
	observability.Current().ObserveStepBatch("ok", len(batch.Created), len(batch.Updated), len(batch.Deleted))
	return out, nil
}

func (s *stepService) reconcile(dbc dbctx.Context, caseID int64, batch casetree.Batch) ([]casetree.StepRecord, error) {
	c, err := s.cases.GetByID(dbc, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.NotFound("case")
	}
	owned, err := s.links.StepIDsForCase(dbc, caseID)
	if err != nil {
		return nil, fmt.Errorf("load case steps: %w", err)
	}
	if err := validateBatch(batch, owned); err != nil {
		return nil, err
	}
	if ids := shadowedParents(batch, owned); len(ids) > 0 {
		s.log.Warn("parent ids match both a new step's temporary id and an existing step, linking to the new step",
			"case_id", caseID, "parent_ids", ids)
		observability.Current().IncStructuralFallback("ambiguous_temp_parent", len(ids))
	}

	if len(batch.Deleted) > 0 {
		// detach moved steps first so the parent cascade cannot take them
		for _, rec := range batch.Updated {
			if err := s.steps.UpdateFields(dbc, rec.ID, map[string]interface{}{
				"parent_step_id": realParent(rec, batch),
			}); err != nil {
				return nil, fmt.Errorf("detach step %d: %w", rec.ID, err)
			}
		}
	}
	for _, rec := range batch.Deleted {
		n, err := s.links.DeleteByCaseAndStep(dbc, caseID, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("delete case step %d: %w", rec.ID, err)
		}
		// zero when an earlier delete in this batch already cascaded to it
		if n == 0 {
			continue
		}
		if _, err := s.steps.FullDeleteByIDs(dbc, []int64{rec.ID}); err != nil {
			return nil, fmt.Errorf("delete step %d: %w", rec.ID, err)
		}
	}

	var relink []casetree.StepRecord
	for _, rec := range batch.Updated {
		if rec.ParentStepID != nil && batch.IsTempRef(*rec.ParentStepID) {
			relink = append(relink, rec)
		}
		if err := s.steps.UpdateFields(dbc, rec.ID, map[string]interface{}{
			"step":           rec.Step,
			"result":         rec.Result,
			"parent_step_id": realParent(rec, batch),
		}); err != nil {
			return nil, fmt.Errorf("update step %d: %w", rec.ID, err)
		}
		if err := s.links.UpdateStepNo(dbc, caseID, rec.ID, rec.CaseSteps.StepNo); err != nil {
			return nil, fmt.Errorf("update step %d order: %w", rec.ID, err)
		}
	}

	ordered, forced := casetree.OrderCreated(batch.Created, batch.IsTempRef)
	if len(forced) > 0 {
		s.log.Warn("step batch has cyclic or dangling parent references, creating them at root",
			"case_id", caseID, "temp_ids", forced)
		observability.Current().IncStructuralFallback("cycle_or_dangling", len(forced))
	}
	idMap := make(map[int64]int64, len(ordered))
	for _, rec := range ordered {
		parent := casetree.ResolveParent(rec.ParentStepID, idMap, batch.IsTempRef)
		row, err := s.steps.Create(dbc, &types.Step{Step: rec.Step, Result: rec.Result, ParentStepID: parent})
		if err != nil {
			return nil, fmt.Errorf("create step (temp id %d): %w", rec.ID, err)
		}
		if _, err := s.links.Create(dbc, &types.CaseStep{CaseID: caseID, StepID: row.ID, StepNo: rec.CaseSteps.StepNo}); err != nil {
			return nil, fmt.Errorf("link step %d: %w", row.ID, err)
		}
		idMap[rec.ID] = row.ID
	}

	for _, rec := range relink {
		real, ok := idMap[*rec.ParentStepID]
		if !ok {
			s.log.Warn("updated step references an unknown temporary parent, leaving it at root",
				"case_id", caseID, "step_id", rec.ID, "temp_parent", *rec.ParentStepID)
			observability.Current().IncStructuralFallback("dangling_update_parent", 1)
			continue
		}
		if err := s.steps.UpdateFields(dbc, rec.ID, map[string]interface{}{"parent_step_id": real}); err != nil {
			return nil, fmt.Errorf("relink step %d: %w", rec.ID, err)
		}
	}

	links, err := s.links.ListByCase(dbc, caseID)
	if err != nil {
		return nil, fmt.Errorf("reload case steps: %w", err)
	}
	if err := checkAcyclic(dbc, links); err != nil {
		return nil, err
	}
	if err := s.renumber(dbc, links); err != nil {
		return nil, err
	}

	final := make(map[int64]casetree.StepRecord, len(links))
	for _, r := range toRecords(links) {
		final[r.ID] = r
	}
	created := make([]casetree.StepRecord, 0, len(batch.Created))
	for _, rec := range batch.Created {
		rec.ID = idMap[rec.ID]
		created = append(created, rec)
	}
	result := make([]casetree.StepRecord, 0, len(batch.Unchanged)+len(batch.Updated)+len(created))
	result = append(result, settle(batch.Unchanged, final)...)
	result = append(result, settle(batch.Updated, final)...)
	result = append(result, settle(created, final)...)
	return result, nil
}

// renumber makes sibling stepNo contiguous and patches links in place.
func (s *stepService) renumber(dbc dbctx.Context, links []*types.CaseStep) error {
	rows := make([]casetree.SiblingRow, 0, len(links))
	for _, l := range links {
		if l.Step == nil {
			continue
		}
		rows = append(rows, casetree.SiblingRow{
			CaseStepID:   l.ID,
			StepID:       l.StepID,
			ParentStepID: l.Step.ParentStepID,
			StepNo:       l.StepNo,
		})
	}
	changes := casetree.Renumber(rows)
	if len(changes) == 0 {
		return nil
	}
	if err := s.links.UpdateStepNoByIDs(dbc, changes); err != nil {
		return fmt.Errorf("renumber steps: %w", err)
	}
	for _, l := range links {
		if no, ok := changes[l.ID]; ok {
			l.StepNo = no
		}
	}
	return nil
}

// validateBatch rejects references to steps outside the case. Real parent
// ids must belong to the case and survive this batch's deletions.
func validateBatch(batch casetree.Batch, owned []int64) error {
	ownedSet := make(map[int64]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}
	deleted := make(map[int64]struct{}, len(batch.Deleted))
	for _, rec := range batch.Deleted {
		if _, ok := ownedSet[rec.ID]; !ok {
			return apierr.Validation("step %d does not belong to this case", rec.ID)
		}
		deleted[rec.ID] = struct{}{}
	}
	checkParent := func(rec casetree.StepRecord) error {
		if rec.ParentStepID == nil || batch.IsTempRef(*rec.ParentStepID) {
			return nil
		}
		p := *rec.ParentStepID
		if _, ok := ownedSet[p]; !ok {
			return apierr.Validation("parent step %d does not belong to this case", p)
		}
		if _, gone := deleted[p]; gone {
			return apierr.Validation("parent step %d is deleted in the same batch", p)
		}
		return nil
	}
	for _, rec := range batch.Updated {
		if _, ok := ownedSet[rec.ID]; !ok {
			return apierr.Validation("step %d does not belong to this case", rec.ID)
		}
		if _, gone := deleted[rec.ID]; gone {
			return apierr.Validation("step %d is both updated and deleted", rec.ID)
		}
		if rec.ParentStepID != nil && *rec.ParentStepID == rec.ID {
			return apierr.Validation("step %d cannot be its own parent", rec.ID)
		}
		if err := checkParent(rec); err != nil {
			return err
		}
	}
	for _, rec := range batch.Created {
		if err := checkParent(rec); err != nil {
			return err
		}
	}
	return nil
}

// shadowedParents lists parent references that name both a temporary id
// created in this batch and a step the case already owns. Such references
// resolve to the new step.
func shadowedParents(batch casetree.Batch, owned []int64) []int64 {
	ownedSet := make(map[int64]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}
	shadowed := make(map[int64]struct{})
	for _, rec := range batch.Created {
		if _, ok := ownedSet[rec.ID]; ok && rec.ID > 0 {
			shadowed[rec.ID] = struct{}{}
		}
	}
	if len(shadowed) == 0 {
		return nil
	}
	var out []int64
	seen := make(map[int64]struct{})
	for _, group := range [][]casetree.StepRecord{batch.Updated, batch.Created} {
		for _, rec := range group {
			if rec.ParentStepID == nil {
				continue
			}
			p := *rec.ParentStepID
			if _, ok := shadowed[p]; !ok {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// checkAcyclic rejects a step tree in which some step is its own ancestor,
// which updates re-parenting existing steps could otherwise produce.
func checkAcyclic(dbc dbctx.Context, links []*types.CaseStep) error {
	parents := make(map[int64]*int64, len(links))
	for _, l := range links {
		if l.Step != nil {
			parents[l.StepID] = l.Step.ParentStepID
		}
	}
	parentOf := func(_ context.Context, id int64) (*int64, bool, error) {
		p, ok := parents[id]
		return p, ok, nil
	}
	for id, parent := range parents {
		if parent == nil {
			continue
		}
		loop, err := casetree.HasAncestor(dbc.Ctx, *parent, id, parentOf)
		if err != nil {
			return err
		}
		if loop {
			return apierr.Validation("step %d would become its own ancestor", id)
		}
	}
	return nil
}

// realParent is the parent to write for an updated record; a temporary
// parent is written as nil and linked once created.
func realParent(rec casetree.StepRecord, batch casetree.Batch) *int64 {
	if rec.ParentStepID == nil || batch.IsTempRef(*rec.ParentStepID) {
		return nil
	}
	p := *rec.ParentStepID
	return &p
}

// settle refreshes records from the persisted state and marks them
// notChanged. Records whose step no longer exists are dropped. A nil final
// map echoes the records as given.
func settle(recs []casetree.StepRecord, final map[int64]casetree.StepRecord) []casetree.StepRecord {
	out := make([]casetree.StepRecord, 0, len(recs))
	for _, rec := range recs {
		if final != nil {
			persisted, ok := final[rec.ID]
			if !ok {
				continue
			}
			rec = persisted
		}
		rec.EditState = casetree.EditStateNotChanged
		out = append(out, rec)
	}
	return out
}

func toRecords(links []*types.CaseStep) []casetree.StepRecord {
	out := make([]casetree.StepRecord, 0, len(links))
	for _, l := range links {
		if l.Step == nil {
			continue
		}
		out = append(out, casetree.StepRecord{
			ID:           l.StepID,
			Step:         l.Step.Step,
			Result:       l.Step.Result,
			ParentStepID: l.Step.ParentStepID,
			EditState:    casetree.EditStateNotChanged,
			CaseSteps:    casetree.CaseStepInfo{StepNo: l.StepNo},
		})
	}
	return out
}
