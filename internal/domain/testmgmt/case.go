package testmgmt

import "time"

type Case struct {
	ID               int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title            string  `gorm:"column:title;not null" json:"title"`
	State            int     `gorm:"column:state;not null;default:0" json:"state"`
	Priority         int     `gorm:"column:priority;not null;default:0" json:"priority"`
	Type             int     `gorm:"column:type;not null;default:0" json:"type"`
	AutomationStatus int     `gorm:"column:automation_status;not null;default:0" json:"automationStatus"`
	Template         int     `gorm:"column:template;not null;default:0" json:"template"`
	Description      string  `gorm:"column:description;type:text" json:"description"`
	PreConditions    string  `gorm:"column:pre_conditions;type:text" json:"preConditions"`
	ExpectedResults  string  `gorm:"column:expected_results;type:text" json:"expectedResults"`
	FolderID         int64   `gorm:"column:folder_id;not null;index" json:"folderId"`
	Folder           *Folder `gorm:"constraint:OnDelete:CASCADE;foreignKey:FolderID;references:ID" json:"-"`
	IsDeleted        bool    `gorm:"column:is_deleted;not null;default:false;index" json:"isDeleted"`
	// DeletedFromProjectID is the project a soft-deleted case belonged to, kept
	// so restore can scope cases whose folder no longer exists.
	DeletedFromProjectID *int64    `gorm:"column:deleted_from_project_id;index" json:"-"`
	CreatedAt            time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt            time.Time `gorm:"not null" json:"updatedAt"`
}

func (Case) TableName() string { return "cases" }
