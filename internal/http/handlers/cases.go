package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casetree-backend/internal/data/repos"
	"github.com/yungbote/casetree-backend/internal/http/response"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/services"
)

type CaseHandler struct {
	cases services.CaseService
}

func NewCaseHandler(cases services.CaseService) *CaseHandler {
	return &CaseHandler{cases: cases}
}

// GET /cases?folderId=&search=&priority=&type=
func (h *CaseHandler) ListByFolder(c *gin.Context) {
	folderID, err := queryID(c, "folderId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	filter := caseFilterOf(c)
	if len(filter.Term) > repos.MaxSearchTermLen {
		response.RespondError(c, apierr.Validation("search must be at most %d characters", repos.MaxSearchTermLen))
		return
	}
	out, err := h.cases.ListByFolder(dbcOf(c), folderID, filter)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /cases/recursive?folderId=
func (h *CaseHandler) ListRecursive(c *gin.Context) {
	folderID, err := queryID(c, "folderId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	out, err := h.cases.ListRecursive(dbcOf(c), folderID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /cases/count?projectId=
func (h *CaseHandler) Count(c *gin.Context) {
	projectID, err := queryID(c, "projectId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	n, err := h.cases.CountByProject(dbcOf(c), projectID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}

// GET /cases/search?projectId=&search=&priority=&type=&isDeleted=
func (h *CaseHandler) Search(c *gin.Context) {
	projectID, err := queryID(c, "projectId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	isDeleted := false
	if raw := strings.TrimSpace(c.Query("isDeleted")); raw != "" {
		isDeleted, err = strconv.ParseBool(raw)
		if err != nil {
			response.RespondError(c, apierr.Validation("isDeleted must be a boolean"))
			return
		}
	}
	out, err := h.cases.Search(dbcOf(c), projectID, caseFilterOf(c), isDeleted)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /cases/bulkdelete?projectId=
// body: {caseIds}
func (h *CaseHandler) BulkDelete(c *gin.Context) {
	projectID, err := queryID(c, "projectId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	body, err := bindCaseIDs(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := h.cases.BulkDelete(dbcOf(c), projectID, *body.CaseIDs); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /cases/bulkrestore?projectId=
// body: {caseIds}
func (h *CaseHandler) BulkRestore(c *gin.Context) {
	projectID, err := queryID(c, "projectId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	body, err := bindCaseIDs(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := h.cases.BulkRestore(dbcOf(c), projectID, *body.CaseIDs); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /cases/move?projectId=
// body: {caseIds, targetFolderId}
func (h *CaseHandler) MoveCases(c *gin.Context) {
	projectID, err := queryID(c, "projectId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	body, err := bindCaseIDs(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if body.TargetFolderID <= 0 {
		response.RespondError(c, apierr.Validation("targetFolderId is required"))
		return
	}
	if err := h.cases.MoveCases(dbcOf(c), projectID, *body.CaseIDs, body.TargetFolderID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
