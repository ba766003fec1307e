package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/error/code"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(handler gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1.0/test", nil)
	handler(c)

	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSuccess(t *testing.T) {
	w, resp := run(func(c *gin.Context) { Success(c, gin.H{"name": "ihome"}) })
	if w.Code != http.StatusOK || resp.Errno != "0" || resp.Errmsg != "成功" {
		t.Errorf("响应 = %d %+v", w.Code, resp)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		errno  string
		status int
		msg    string
	}{
		{bizerr.ErrHouseUnavailable, code.DATAEXIST, 409, bizerr.ErrHouseUnavailable.Message},
		{bizerr.ErrInvalidTransition, code.DATAERR, 409, bizerr.ErrInvalidTransition.Message},
		{bizerr.ErrSelfBooking, code.ROLEERR, 403, bizerr.ErrSelfBooking.Message},
		{bizerr.ErrInvalidDateRange, code.PARAMERR, 400, bizerr.ErrInvalidDateRange.Message},
		{bizerr.ErrHouseNotFound, code.NODATA, 404, bizerr.ErrHouseNotFound.Message},
		{bizerr.ErrLoginLimited, code.IPERR, 429, bizerr.ErrLoginLimited.Message},
		{bizerr.ErrUnauthenticated, code.SESSIONERR, 401, bizerr.ErrUnauthenticated.Message},
		{fmt.Errorf("x: %w", bizerr.ErrCodeMismatch), code.DATAERR, 409, bizerr.ErrCodeMismatch.Message},
		{bizerr.Store(errors.New("dial tcp 10.0.0.1:3306")), code.DBERR, 500, "数据库查询错误"},
		{errors.New("boom"), code.SERVERERR, 500, "内部错误"},
	}
	for _, tt := range tests {
		w, resp := run(func(c *gin.Context) { Error(c, tt.err) })
		if resp.Errno != tt.errno || w.Code != tt.status || resp.Errmsg != tt.msg {
			t.Errorf("Error(%v) = %d %+v, 期望 %d %s %s", tt.err, w.Code, resp, tt.status, tt.errno, tt.msg)
		}
		if strings.Contains(w.Body.String(), "dial tcp") {
			t.Errorf("响应泄露了底层错误: %s", w.Body.String())
		}
	}
}
