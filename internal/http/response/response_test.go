package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/casetree-backend/internal/platform/apierr"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondError(c, err)

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestRespondErrorMapsStatus(t *testing.T) {
	rec, env := respond(t, fmt.Errorf("load: %w", apierr.NotFound("folder")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierr.CodeNotFound, env.Error.Code)
	assert.Equal(t, "load: folder not found", env.Error.Message)

	rec, env = respond(t, apierr.InvalidMove("cannot move folder into itself"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierr.CodeValidation, env.Error.Code)
}

func TestRespondErrorHidesServerFailures(t *testing.T) {
	rec, env := respond(t, apierr.Transaction(errors.New("database is locked")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalMessage, env.Error.Message)
	assert.Equal(t, apierr.CodeTransaction, env.Error.Code)

	rec, env = respond(t, errors.New("raw driver error"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalMessage, env.Error.Message)
}
