package testmgmt

import "time"

type Project struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Detail    string    `gorm:"column:detail;type:text" json:"detail,omitempty"`
	IsPublic  bool      `gorm:"column:is_public;not null;default:false" json:"isPublic"`
	UserID    int64     `gorm:"column:user_id;not null;index" json:"userId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Project) TableName() string { return "projects" }

type MemberRole int

const (
	MemberRoleManager   MemberRole = 1
	MemberRoleDeveloper MemberRole = 2
	MemberRoleReporter  MemberRole = 3
)

// CanEdit reports whether the role may mutate cases, steps and folders.
func (r MemberRole) CanEdit() bool {
	return r == MemberRoleManager || r == MemberRoleDeveloper
}

type Member struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"column:user_id;not null;uniqueIndex:idx_member_project_user,priority:2" json:"userId"`
	ProjectID int64      `gorm:"column:project_id;not null;uniqueIndex:idx_member_project_user,priority:1" json:"projectId"`
	Project   *Project   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"-"`
	Role      MemberRole `gorm:"column:role;not null" json:"role"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"not null" json:"updatedAt"`
}

func (Member) TableName() string { return "members" }
