package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"busbuddy/pkg/response"
)

// parseID 解析路径参数中的正整数 ID；失败时写入 400 响应，调用方应在 ok=false 时直接 return
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, codeBadRequest, "invalid request",
			[]string{fmt.Sprintf("%s must be a positive integer", name)})
		return 0, false
	}
	return uint(id), true
}

// bindJSON 绑定请求体；失败时写入 400 响应
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badBinding(c, err)
		return false
	}
	return true
}

// bindQuery 绑定查询参数；失败时写入 400 响应
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		badBinding(c, err)
		return false
	}
	return true
}

func badBinding(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.PayloadTooLarge(c)
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, codeBadRequest, "invalid request", []string{"request could not be parsed"})
		return
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			problems = append(problems, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
			continue
		}
		problems = append(problems, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, codeBadRequest, "invalid request", problems)
}
