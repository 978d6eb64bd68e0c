package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casetree-backend/internal/data/repos"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
)

func dbcOf(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

func queryID(c *gin.Context, name string) (int64, error) {
	return parseID(name, c.Query(name))
}

func paramID(c *gin.Context, name string) (int64, error) {
	return parseID(name, c.Param(name))
}

func parseID(name, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apierr.Validation("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.Validation("%s must be a positive integer", name)
	}
	return id, nil
}

// caseFilterOf reads search, priority and type. List values are
// comma-separated integers; entries that do not parse are ignored.
func caseFilterOf(c *gin.Context) repos.CaseFilter {
	return repos.CaseFilter{
		Term:       strings.TrimSpace(c.Query("search")),
		Priorities: intList(c.Query("priority")),
		Types:      intList(c.Query("type")),
	}
}

func intList(raw string) []int {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// caseIDsBody is shared by the bulk case endpoints. A pointer keeps a missing
// field distinct from an empty array.
type caseIDsBody struct {
	CaseIDs        *[]int64 `json:"caseIds"`
	TargetFolderID int64    `json:"targetFolderId"`
}

func bindCaseIDs(c *gin.Context) (caseIDsBody, error) {
	var body caseIDsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return body, apierr.Validation("caseIds must be an array of ids")
	}
	if body.CaseIDs == nil {
		return body, apierr.Validation("caseIds is required")
	}
	return body, nil
}
