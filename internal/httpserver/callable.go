package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metachat/notification-service/internal/service"
)

// Callable protocol: {"data": ...} in, {"result": ...} or {"error": ...} out.
const (
	statusUnauthenticated = "UNAUTHENTICATED"
	statusInvalidArgument = "INVALID_ARGUMENT"
	statusInternal        = "INTERNAL"
)

type issueTokenRequest struct {
	Data struct {
		ChannelName string `json:"channelName"`
	} `json:"data"`
}

type issueTokenResult struct {
	Token string `json:"token"`
}

type callableError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func abortCallable(c *gin.Context, code int, status, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": callableError{Status: status, Message: message}})
}

func (s *Server) issueToken(c *gin.Context) {
	var req issueTokenRequest
	var bindErr error
	if c.Request.ContentLength != 0 {
		bindErr = c.ShouldBindJSON(&req)
	}

	// Anonymous callers get unauthenticated even when the body is unusable.
	caller := callerID(c)
	if bindErr != nil && caller != "" {
		abortCallable(c, http.StatusBadRequest, statusInvalidArgument, "request body must be a JSON object")
		return
	}

	tok, err := s.issuer.IssueToken(c.Request.Context(), caller, req.Data.ChannelName)
	if err != nil {
		if ce, ok := service.AsCallerError(err); ok {
			switch ce.Kind {
			case service.KindUnauthenticated:
				abortCallable(c, http.StatusUnauthorized, statusUnauthenticated, ce.Message)
				return
			case service.KindInvalidArgument:
				abortCallable(c, http.StatusBadRequest, statusInvalidArgument, ce.Message)
				return
			}
		}
		s.logger.WithError(err).Error("Failed to issue media token")
		abortCallable(c, http.StatusInternalServerError, statusInternal, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": issueTokenResult{Token: tok.Token}})
}
