package testmgmt

import "time"

type Step struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Step         string    `gorm:"column:step;type:text;not null" json:"step"`
	Result       string    `gorm:"column:result;type:text;not null" json:"result"`
	ParentStepID *int64    `gorm:"column:parent_step_id;index" json:"parentStepId"`
	Parent       *Step     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ParentStepID;references:ID" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}

func (Step) TableName() string { return "steps" }

// CaseStep links a step to a case and orders it among its siblings.
type CaseStep struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CaseID    int64     `gorm:"column:case_id;not null;uniqueIndex:idx_case_step,priority:1" json:"caseId"`
	Case      *Case     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CaseID;references:ID" json:"-"`
	StepID    int64     `gorm:"column:step_id;not null;uniqueIndex:idx_case_step,priority:2;index" json:"stepId"`
	Step      *Step     `gorm:"constraint:OnDelete:CASCADE;foreignKey:StepID;references:ID" json:"step,omitempty"`
	StepNo    int       `gorm:"column:step_no;not null" json:"stepNo"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (CaseStep) TableName() string { return "case_steps" }
