package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/casetree-backend/internal/platform/ctxutil"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	svc := NewAuthService(logger.Nop(), "secret", time.Minute)
	tok, err := svc.IssueToken(42)
	require.NoError(t, err)

	ctx, err := svc.SetContextFromToken(context.Background(), tok)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	assert.Equal(t, int64(42), rd.UserID)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(logger.Nop(), "secret", time.Minute)

	other := NewAuthService(logger.Nop(), "other", time.Minute)
	forged, err := other.IssueToken(1)
	require.NoError(t, err)
	_, err = svc.SetContextFromToken(context.Background(), forged)
	assert.Error(t, err)

	_, err = svc.SetContextFromToken(context.Background(), "")
	assert.Error(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.SetContextFromToken(context.Background(), expired)
	assert.Error(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.SetContextFromToken(context.Background(), badSubject)
	assert.Error(t, err)
}
