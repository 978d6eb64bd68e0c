package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casetree-backend/internal/http/middleware"
	"github.com/yungbote/casetree-backend/internal/http/response"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/services"
)

type FolderHandler struct {
	folders services.FolderService
}

func NewFolderHandler(folders services.FolderService) *FolderHandler {
	return &FolderHandler{folders: folders}
}

// GET /folders?projectId=
func (h *FolderHandler) ListFolders(c *gin.Context) {
	projectID, err := queryID(c, "projectId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	out, err := h.folders.ListFolders(dbcOf(c), projectID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /folders?projectId=
// body: {name, detail, projectId, parentFolderId}
func (h *FolderHandler) CreateFolder(c *gin.Context) {
	var in services.FolderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, apierr.Validation("invalid folder body"))
		return
	}
	// The body must target the project access was checked against.
	if pid, ok := middleware.ProjectID(c); ok {
		if in.ProjectID == 0 {
			in.ProjectID = pid
		}
		if in.ProjectID != pid {
			response.RespondError(c, apierr.Validation("projectId does not match the request project"))
			return
		}
	}
	out, err := h.folders.CreateFolder(dbcOf(c), in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// PUT /folders/:folderId
// body: {name, detail, projectId, parentFolderId}
func (h *FolderHandler) MoveFolder(c *gin.Context) {
	folderID, err := paramID(c, "folderId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var in services.FolderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, apierr.Validation("invalid folder body"))
		return
	}
	out, err := h.folders.MoveFolder(dbcOf(c), folderID, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// DELETE /folders/:folderId
func (h *FolderHandler) DeleteFolder(c *gin.Context) {
	folderID, err := paramID(c, "folderId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := h.folders.DeleteFolder(c.Request.Context(), folderID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
