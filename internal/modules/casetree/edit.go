package casetree

import (
	"fmt"
	"strings"
)

// EditState is the wire tag a client attaches to each step record.
type EditState string

const (
	EditStateNew        EditState = "new"
	EditStateChanged    EditState = "changed"
	EditStateDeleted    EditState = "deleted"
	EditStateNotChanged EditState = "notChanged"
)

type CaseStepInfo struct {
	StepNo int `json:"stepNo"`
}

// StepRecord is the JSON shape exchanged with clients. ID is a real step id
// for existing steps and a client-chosen temporary id for new ones.
type StepRecord struct {
	ID           int64        `json:"id"`
	Step         string       `json:"step"`
	Result       string       `json:"result"`
	ParentStepID *int64       `json:"parentStepId"`
	EditState    EditState    `json:"editState,omitempty"`
	CaseSteps    CaseStepInfo `json:"caseSteps"`
}

// Edit is one of Unchanged, Updated, Deleted or Created.
type Edit interface {
	Record() StepRecord
	isEdit()
}

type Unchanged struct{ Rec StepRecord }
type Updated struct{ Rec StepRecord }
type Deleted struct{ Rec StepRecord }

// Created carries the client temporary id in Rec.ID.
type Created struct{ Rec StepRecord }

func (e Unchanged) Record() StepRecord { return e.Rec }
func (e Updated) Record() StepRecord   { return e.Rec }
func (e Deleted) Record() StepRecord   { return e.Rec }
func (e Created) Record() StepRecord   { return e.Rec }

func (Unchanged) isEdit() {}
func (Updated) isEdit()   {}
func (Deleted) isEdit()   {}
func (Created) isEdit()   {}

// TempID is the client-local identifier of the record to create.
func (e Created) TempID() int64 { return e.Rec.ID }

// Decode turns wire records into edits, rejecting unknown tags. New records
// must carry distinct temporary ids.
func Decode(records []StepRecord) ([]Edit, error) {
	out := make([]Edit, 0, len(records))
	temps := make(map[int64]int)
	for i, rec := range records {
		rec.EditState = EditState(strings.TrimSpace(string(rec.EditState)))
		switch rec.EditState {
		case EditStateNotChanged:
			out = append(out, Unchanged{Rec: rec})
		case EditStateChanged:
			if rec.ID <= 0 {
				return nil, fmt.Errorf("record %d: changed step needs a persisted id", i)
			}
			out = append(out, Updated{Rec: rec})
		case EditStateDeleted:
			if rec.ID <= 0 {
				return nil, fmt.Errorf("record %d: deleted step needs a persisted id", i)
			}
			out = append(out, Deleted{Rec: rec})
		case EditStateNew:
			if first, dup := temps[rec.ID]; dup {
				return nil, fmt.Errorf("record %d: temporary id %d already used by record %d", i, rec.ID, first)
			}
			temps[rec.ID] = i
			out = append(out, Created{Rec: rec})
		default:
			return nil, fmt.Errorf("record %d: unknown editState %q", i, rec.EditState)
		}
	}
	return out, nil
}
