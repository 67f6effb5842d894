package utils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Outcome  string   `json:"outcome" binding:"required,oneof=positive negative"`
	Feedback string   `json:"feedback" binding:"max=10"`
	Tags     []string `json:"tags" binding:"max=2"`
}

func bind(t *testing.T, body string) (*httptest.ResponseRecorder, bool) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req sampleRequest
	return w, BindAndValidate(c, &req)
}

func decodeErrors(t *testing.T, w *httptest.ResponseRecorder) (Response, []ValidationErrorDetail) {
	var resp struct {
		Response
		Data ValidationErrorData `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Response, resp.Data.Errors
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		ok        bool
		wantField string
	}{
		{name: "valid", body: `{"outcome":"positive"}`, ok: true},
		{name: "missing required", body: `{}`, wantField: "outcome"},
		{name: "bad enum", body: `{"outcome":"meh"}`, wantField: "outcome"},
		{name: "too long", body: `{"outcome":"negative","feedback":"far too long for this"}`, wantField: "feedback"},
		{name: "too many items", body: `{"outcome":"negative","tags":["a","b","c"]}`, wantField: "tags"},
		{name: "unknown field", body: `{"outcome":"positive","score":5}`, wantField: "score"},
		{name: "wrong type", body: `{"outcome":5}`, wantField: "outcome"},
		{name: "malformed", body: `{"outcome":`, wantField: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := bind(t, tt.body)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				return
			}

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp, details := decodeErrors(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, ReasonValidationFailed, resp.Reason)
			if assert.NotEmpty(t, details) {
				assert.Equal(t, tt.wantField, details[0].Field)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	ok := NewSuccessResponse("done", nil)
	assert.True(t, ok.Success)
	assert.Empty(t, ok.Reason)

	limited := NewErrorResponse(http.StatusTooManyRequests, "slow down")
	assert.False(t, limited.Success)
	assert.Equal(t, ReasonRateLimited, limited.Reason)

	assert.Equal(t, ReasonForbidden, ReasonForStatus(http.StatusForbidden))
	assert.Equal(t, ReasonInternalError, ReasonForStatus(http.StatusBadGateway))
}
