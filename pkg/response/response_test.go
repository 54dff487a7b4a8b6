package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

func TestErrorUsesTypedStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrConflict, "Already approved"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "Already approved", body.Error.Message)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestMessageAddsMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Message(c, http.StatusOK, "Time blocked.", gin.H{"id": 1})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"id":1},"meta":{"message":"Time blocked."}}`, w.Body.String())
}

func TestAttachmentSetsDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "overview.csv", "text/csv", 3, strings.NewReader("a,b"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="overview.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b", w.Body.String())
}
