package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

func run(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/testimonies/x", nil)
	Error(c, err)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestError_AppErrorStatus(t *testing.T) {
	cases := map[error]int{
		apperror.ErrTestimonyNotFound:                         http.StatusNotFound,
		apperror.ErrInvalidCoordinates:                        http.StatusBadRequest,
		apperror.New(apperror.ErrCodeValidation, "too short"): http.StatusBadRequest,
		apperror.ErrAlreadyCorroborated:                       http.StatusConflict,
	}
	for err, status := range cases {
		w := run(err)
		assert.Equal(t, status, w.Code, err.Error())
		resp := decode(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, string(apperror.CodeOf(err)), resp.Error.Code)
	}
}

func TestError_MasksInternal(t *testing.T) {
	logger.Silence()
	w := run(apperror.Wrap(errors.New("pq: connection refused"), apperror.ErrCodeDatabaseError, "не удалось сохранить"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.Equal(t, string(apperror.ErrCodeDatabaseError), resp.Error.Code)
	assert.NotContains(t, w.Body.String(), "pq:")

	w = run(errors.New("boom"))
	assert.Equal(t, string(apperror.ErrCodeInternal), decode(t, w).Error.Code)
}
