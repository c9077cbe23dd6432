package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmsync-service/internal/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware_SyncOperator(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	auth := NewAuthMiddleware(jwt.NewVerifier(&key.PublicKey, "crmsync", "crmsync-api"))

	sign := func(roles ...string) string {
		claims := &jwt.Claims{
			Roles:   roles,
			Purpose: "access",
			RegisteredClaims: gojwt.RegisteredClaims{
				Subject:   "ops@example.com",
				Issuer:    "crmsync",
				Audience:  gojwt.ClaimStrings{"crmsync-api"},
				ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		s, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	router := gin.New()
	router.Use(RequestID())
	handlers := append(auth.SyncOperator(), func(c *gin.Context) {
		subject, _ := GetSubject(c)
		c.String(http.StatusOK, subject)
	})
	router.GET("/protected", handlers...)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "missing token", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", want: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + sign("viewer"), want: http.StatusForbidden},
		{name: "sync role", header: "Bearer " + sign("sync"), want: http.StatusOK},
		{name: "admin via query", query: "?token=" + sign("admin"), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			if tt.want == http.StatusOK {
				assert.Equal(t, "ops@example.com", rec.Body.String())
			}
		})
	}
}
