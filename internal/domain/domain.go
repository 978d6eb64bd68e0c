package domain

import "github.com/yungbote/casetree-backend/internal/domain/testmgmt"

type Project = testmgmt.Project
type Member = testmgmt.Member
type MemberRole = testmgmt.MemberRole
type Folder = testmgmt.Folder
type Case = testmgmt.Case
type Step = testmgmt.Step
type CaseStep = testmgmt.CaseStep

const (
	MemberRoleManager   = testmgmt.MemberRoleManager
	MemberRoleDeveloper = testmgmt.MemberRoleDeveloper
	MemberRoleReporter  = testmgmt.MemberRoleReporter

	RootFolderName = testmgmt.RootFolderName
)

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&Project{},
		&Member{},
		&Folder{},
		&Case{},
		&Step{},
		&CaseStep{},
	}
}
