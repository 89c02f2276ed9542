package handler

import (
	"errors"
	"net/http"

	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/BloggingApp/feed-service/internal/service"
	"github.com/gin-gonic/gin"
)

var (
	errNotAuthorized   = errors.New("user is not authorized")
	errInvalidPostID   = errors.New("invalid post ID")
	errInvalidBody     = errors.New("invalid request body")
	errTooManyRequests = errors.New("too many requests, try again later")
)

var kindStatus = map[service.Kind]int{
	service.KindValidation:       http.StatusBadRequest,
	service.KindPermissionDenied: http.StatusForbidden,
	service.KindNotFound:         http.StatusNotFound,
	service.KindUnavailable:      http.StatusServiceUnavailable,
	service.KindTimeout:          http.StatusGatewayTimeout,
	service.KindUnknown:          http.StatusInternalServerError,
}

// statusOf maps a classified service error onto an HTTP status.
func statusOf(kind service.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// abortWithError writes the user-facing message of err. Raw causes never reach the client.
func abortWithError(c *gin.Context, err error) {
	classified := service.Classify(c.FullPath(), err)
	c.AbortWithStatusJSON(statusOf(classified.Kind), dto.NewErrorResponse(string(classified.Kind), classified.UserMessage()))
}

func abortBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(string(service.KindValidation), err.Error()))
}
