package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casetree-backend/internal/http/response"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/ctxutil"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
	"github.com/yungbote/casetree-backend/internal/services"
)

const projectIDKey = "project_id"

// ProjectAccess resolves the project a request targets and checks that the
// caller may read it (GET) or edit it (everything else). The project comes
// from caseId, then folderId, then projectId; path params win over query.
type ProjectAccess struct {
	log  *logger.Logger
	auth services.Authorizer
}

func NewProjectAccess(log *logger.Logger, auth services.Authorizer) *ProjectAccess {
	return &ProjectAccess{log: log.With("middleware", "ProjectAccess"), auth: auth}
}

func (pa *ProjectAccess) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		var userID int64
		if rd != nil {
			userID = rd.UserID
		}
		dbc := dbctx.Context{Ctx: c.Request.Context()}

		projectID, err := pa.resolveProject(c, dbc)
		if err != nil {
			response.RespondError(c, err)
			c.Abort()
			return
		}

		var allowed bool
		if c.Request.Method == http.MethodGet {
			allowed, err = pa.auth.CanView(dbc, userID, projectID)
		} else {
			allowed, err = pa.auth.CanEdit(dbc, userID, projectID)
		}
		if err != nil {
			response.RespondError(c, err)
			c.Abort()
			return
		}
		if !allowed {
			pa.log.Debug("access denied", "user_id", userID, "project_id", projectID, "method", c.Request.Method)
			if userID <= 0 {
				abortUnauthorized(c, "missing or invalid token")
				return
			}
			abortForbidden(c)
			return
		}
		c.Set(projectIDKey, projectID)
		c.Next()
	}
}

func (pa *ProjectAccess) resolveProject(c *gin.Context, dbc dbctx.Context) (int64, error) {
	if raw := lookup(c, "caseId"); raw != "" {
		id, err := parseID("caseId", raw)
		if err != nil {
			return 0, err
		}
		return pa.auth.ProjectIDForCase(dbc, id)
	}
	if raw := lookup(c, "folderId"); raw != "" {
		id, err := parseID("folderId", raw)
		if err != nil {
			return 0, err
		}
		return pa.auth.ProjectIDForFolder(dbc, id)
	}
	if raw := lookup(c, "projectId"); raw != "" {
		return parseID("projectId", raw)
	}
	return 0, apierr.Validation("projectId is required")
}

// ProjectID returns the project resolved by ProjectAccess.
func ProjectID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(projectIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func lookup(c *gin.Context, name string) string {
	if v := strings.TrimSpace(c.Param(name)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query(name))
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.Validation("%s must be a positive integer", name)
	}
	return id, nil
}
