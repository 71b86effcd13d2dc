package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ostadtodo/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func TestIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	sessions := testutil.NewSessions()
	issuer := NewIssuer(testSecret, time.Hour, sessions)

	token, err := issuer.Issue(ctx, 7, "ostad")
	require.NoError(t, err)
	assert.Equal(t, 1, sessions.Len())

	userID, claims, err := issuer.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
	assert.Equal(t, "ostad", claims.Username)

	require.NoError(t, issuer.Revoke(ctx, claims))
	_, _, err = issuer.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	sessions := testutil.NewSessions()
	issuer := NewIssuer(testSecret, time.Hour, sessions)

	other := NewIssuer("another-secret-0123456789", time.Hour, sessions)
	token, err := other.Issue(ctx, 7, "ostad")
	require.NoError(t, err)
	_, _, err = issuer.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = issuer.Issue(ctx, 7, "ostad")
	require.NoError(t, err)
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, err = issuer.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, _, err = issuer.Verify(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewIssuer(testSecret, time.Hour, testutil.NewSessions())
	token, err := issuer.Issue(context.Background(), 42, "ostad")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/private", RequireBearer(issuer), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserIDFromContext(c)})
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"user":42}`, w.Body.String())
			}
		})
	}
}

func TestRequireBearerSessionStoreDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := testutil.NewSessions()
	issuer := NewIssuer(testSecret, time.Hour, sessions)
	token, err := issuer.Issue(context.Background(), 42, "ostad")
	require.NoError(t, err)
	sessions.Err = errors.New("dial tcp: connection refused")

	_, _, err = issuer.Verify(context.Background(), token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)

	r := gin.New()
	r.GET("/private", RequireBearer(issuer), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}
