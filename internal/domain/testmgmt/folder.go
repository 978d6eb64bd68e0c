package testmgmt

import "time"

// RootFolderName is used when a project has no folder to restore cases into.
const RootFolderName = "Root"

type Folder struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Detail         string    `gorm:"column:detail;type:text" json:"detail"`
	ProjectID      int64     `gorm:"column:project_id;not null;index" json:"projectId"`
	Project        *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"-"`
	ParentFolderID *int64    `gorm:"column:parent_folder_id;index" json:"parentFolderId"`
	Parent         *Folder   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ParentFolderID;references:ID" json:"-"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"not null" json:"updatedAt"`
}

func (Folder) TableName() string { return "folders" }
