package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/casetree-backend/internal/http/response"
	"github.com/yungbote/casetree-backend/internal/modules/casetree"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/services"
)

type StepHandler struct {
	steps services.StepService
}

func NewStepHandler(steps services.StepService) *StepHandler {
	return &StepHandler{steps: steps}
}

// GET /steps?caseId=
func (h *StepHandler) ListSteps(c *gin.Context) {
	caseID, err := queryID(c, "caseId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	out, err := h.steps.ListSteps(dbcOf(c), caseID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /steps/update?caseId=
// body: [{id, step, result, parentStepId, editState, caseSteps:{stepNo}}]
func (h *StepHandler) UpdateSteps(c *gin.Context) {
	caseID, err := queryID(c, "caseId")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var records []casetree.StepRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		response.RespondError(c, apierr.Validation("body must be an array of step records"))
		return
	}
	if records == nil {
		response.RespondError(c, apierr.Validation("body must be an array of step records"))
		return
	}
	out, err := h.steps.ReconcileSteps(dbcOf(c), caseID, records)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}
