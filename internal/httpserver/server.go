package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"metachat/notification-service/internal/auth"
	"metachat/notification-service/internal/events"
	"metachat/notification-service/internal/service"
	"metachat/notification-service/internal/trigger"
)

const callerKey = "caller_id"

type Dispatcher interface {
	Dispatch(ctx context.Context, ev trigger.Event) error
}

type Server struct {
	issuer     *service.TokenIssuer
	dispatcher Dispatcher
	verifier   auth.Verifier
	logger     *logrus.Logger
}

func New(issuer *service.TokenIssuer, dispatcher Dispatcher, verifier auth.Verifier, logger *logrus.Logger) *Server {
	return &Server{
		issuer:     issuer,
		dispatcher: dispatcher,
		verifier:   verifier,
		logger:     logger,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.POST("/callable/issueToken", s.optionalAuth(), s.issueToken)
	v1.POST("/events/firestore", s.firestoreEvent)

	return r
}

// optionalAuth attaches the caller when a valid bearer token is present.
// A malformed or rejected token ends the request as unauthenticated.
func (s *Server) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				c.Next()
				return
			}
			abortCallable(c, http.StatusUnauthorized, statusUnauthenticated, err.Error())
			return
		}

		userID, err := s.verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			abortCallable(c, http.StatusUnauthorized, statusUnauthenticated, auth.ErrInvalidToken.Error())
			return
		}

		c.Set(callerKey, userID)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}).Debug("HTTP request")
	}
}

func callerID(c *gin.Context) string {
	if id, exists := c.Get(callerKey); exists {
		return id.(string)
	}
	return ""
}

func (s *Server) firestoreEvent(c *gin.Context) {
	var body events.FirestoreEvent
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event body"})
		return
	}

	if !body.IsCreate() {
		c.Status(http.StatusNoContent)
		return
	}

	ev, err := body.ToTrigger(c.GetHeader("Ce-Id"), c.Query("document"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.dispatcher.Dispatch(c.Request.Context(), ev); err != nil {
		s.logger.WithError(err).WithField("event_id", ev.ID).Error("Firestore event failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event handling failed"})
		return
	}

	c.Status(http.StatusNoContent)
}
