package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	ConfigureTokens("test_secret", time.Hour)

	token, err := GenerateToken(42, "admin")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)

	id, ok := UserIDFromClaims(claims)
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "admin", claims["role"])

	_, err = ValidateToken(token + "tampered")
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)

	_, err := ExtractToken(c)
	assert.EqualError(t, err, "authorization header is required")

	c.Request.Header.Set("Authorization", "Token abc")
	_, err = ExtractToken(c)
	assert.EqualError(t, err, "bearer token not found")

	c.Request.Header.Set("Authorization", "Bearer abc")
	token, err := ExtractToken(c)
	assert.NoError(t, err)
	assert.Equal(t, "abc", token)
}
