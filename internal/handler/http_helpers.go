package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/service"
	"github.com/plantcare/internal/status"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope 是所有 JSON 响应的统一外壳
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respondSuccess(c *gin.Context, code int, message string, data any) {
	c.JSON(code, envelope{Status: statusSuccess, Message: message, Data: data})
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, envelope{Status: statusError, Message: message})
}

func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, envelope{Status: statusError, Message: message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("%s: %v", message, err))
		return false
	}
	return true
}

func parseUUIDParam(c *gin.Context, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

// errorStatus 将服务层错误映射为 HTTP 状态码；未知错误一律 500
func errorStatus(err error) int {
	switch {
	case errors.Is(err, status.ErrValidation),
		errors.Is(err, service.ErrInvalidPlant),
		errors.Is(err, service.ErrInvalidUser),
		errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, db.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError 输出映射后的错误；500 时隐藏内部细节并记录日志
func (a *API) respondServiceError(c *gin.Context, err error, fallback string) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		a.log.WithError(err).WithField("path", c.FullPath()).Error(fallback)
		respondError(c, code, fallback)
		return
	}
	respondError(c, code, err.Error())
}
