package push

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogGateway records multicasts in the log instead of delivering them.
type LogGateway struct {
	logger *logrus.Logger
}

func NewLogGateway(logger *logrus.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) SendMulticast(_ context.Context, msg *MulticastMessage) (*BatchResult, error) {
	g.logger.WithFields(logrus.Fields{
		"token_count": len(msg.Tokens),
		"title":       msg.Title,
		"body":        msg.Body,
		"data":        msg.Data,
		"priority":    msg.Priority.String(),
	}).Info("Push multicast (log provider)")

	return &BatchResult{SuccessCount: len(msg.Tokens)}, nil
}
