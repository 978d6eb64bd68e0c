package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/casetree-backend/internal/observability"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/ctxutil"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
	"github.com/yungbote/casetree-backend/internal/services"
)

type fakeAuthorizer struct {
	editors  map[int64]bool
	viewers  map[int64]bool
	caseProj map[int64]int64
}

func (f *fakeAuthorizer) CanView(_ dbctx.Context, userID, projectID int64) (bool, error) {
	if projectID == 404 {
		return false, apierr.NotFound("project")
	}
	return f.viewers[userID] || f.editors[userID], nil
}

func (f *fakeAuthorizer) CanEdit(_ dbctx.Context, userID, projectID int64) (bool, error) {
	if projectID == 404 {
		return false, apierr.NotFound("project")
	}
	return f.editors[userID], nil
}

func (f *fakeAuthorizer) ProjectIDForFolder(_ dbctx.Context, folderID int64) (int64, error) {
	return 0, apierr.NotFound("folder")
}

func (f *fakeAuthorizer) ProjectIDForCase(_ dbctx.Context, caseID int64) (int64, error) {
	if pid, ok := f.caseProj[caseID]; ok {
		return pid, nil
	}
	return 0, apierr.NotFound("case")
}

func newAccessRouter(t *testing.T) (*gin.Engine, services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	authSvc := services.NewAuthService(log, "test-secret", time.Minute)
	authz := &fakeAuthorizer{
		editors:  map[int64]bool{1: true},
		viewers:  map[int64]bool{2: true},
		caseProj: map[int64]int64{10: 7},
	}

	r := gin.New()
	r.Use(NewAuthMiddleware(log, authSvc).RequireAuth())
	r.Use(NewProjectAccess(log, authz).Require())
	handler := func(c *gin.Context) {
		pid, _ := ProjectID(c)
		c.JSON(http.StatusOK, gin.H{"projectId": pid})
	}
	r.GET("/steps", handler)
	r.POST("/steps/update", handler)
	r.DELETE("/folders/:folderId", handler)
	return r, authSvc
}

func do(r *gin.Engine, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	r, _ := newAccessRouter(t)
	rec := do(r, http.MethodGet, "/steps?caseId=10", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unauthorized"`)

	rec = do(r, http.MethodGet, "/steps?caseId=10", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectAccessByMethod(t *testing.T) {
	r, authSvc := newAccessRouter(t)
	editor, err := authSvc.IssueToken(1)
	require.NoError(t, err)
	reporter, err := authSvc.IssueToken(2)
	require.NoError(t, err)
	stranger, err := authSvc.IssueToken(3)
	require.NoError(t, err)

	rec := do(r, http.MethodGet, "/steps?caseId=10", reporter)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"projectId":7}`, rec.Body.String())

	rec = do(r, http.MethodPost, "/steps/update?caseId=10", reporter)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(r, http.MethodPost, "/steps/update?caseId=10", editor)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/steps?caseId=10", stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProjectAccessResolutionErrors(t *testing.T) {
	r, authSvc := newAccessRouter(t)
	editor, err := authSvc.IssueToken(1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/steps", editor).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/steps?caseId=abc", editor).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/steps?caseId=99", editor).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/folders/5", editor).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/steps?projectId=404", editor).Code)
}

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/healthcheck", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set(headerRequestID, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, "req-1", seen.RequestID)
	assert.NotEmpty(t, seen.TraceID)
	assert.Equal(t, "req-1", rec.Header().Get(headerRequestID))
	assert.Equal(t, seen.TraceID, rec.Header().Get(headerTraceID))
}

func TestExtractTokenPrefersQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/steps?token=abc", nil).WithContext(context.Background())
	c.Request.Header.Set("Authorization", "Bearer xyz")
	assert.Equal(t, "abc", extractTokenFromAll(c))

	c.Request = httptest.NewRequest(http.MethodGet, "/steps", nil)
	c.Request.Header.Set("Authorization", "bearer xyz")
	assert.Equal(t, "xyz", extractTokenFromAll(c))
}

func TestMetricsLabelsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/folders/:folderId", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/healthcheck", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{"/api/folders/1", "/api/folders/2", "/healthcheck", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	var buf strings.Builder
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()
	assert.Contains(t, out, `route="/api/folders/:folderId",status="200"} 2`)
	assert.Contains(t, out, `route="unmatched",status="404"} 1`)
	assert.NotContains(t, out, `route="/healthcheck"`)
}
