package push

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// MaxMulticastTokens is the provider limit for tokens in a single request.
const MaxMulticastTokens = 500

// MulticastSender is the subset of *messaging.Client the gateway needs.
type MulticastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type FCMGateway struct {
	client MulticastSender
	logger *logrus.Logger
}

func NewFCMGateway(client MulticastSender, logger *logrus.Logger) *FCMGateway {
	return &FCMGateway{
		client: client,
		logger: logger,
	}
}

func (g *FCMGateway) SendMulticast(ctx context.Context, msg *MulticastMessage) (*BatchResult, error) {
	result := &BatchResult{}

	for _, chunk := range lo.Chunk(msg.Tokens, MaxMulticastTokens) {
		resp, err := g.client.SendEachForMulticast(ctx, buildMulticast(msg, chunk))
		if err != nil {
			return result, fmt.Errorf("fcm multicast: %w", err)
		}

		result.SuccessCount += resp.SuccessCount
		result.FailureCount += resp.FailureCount
		for i, r := range resp.Responses {
			if r.Success || i >= len(chunk) {
				continue
			}
			if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
				result.InvalidTokens = append(result.InvalidTokens, chunk[i])
			}
			g.logger.WithError(r.Error).Debug("FCM rejected device token")
		}
	}

	return result, nil
}

func buildMulticast(msg *MulticastMessage, tokens []string) *messaging.MulticastMessage {
	m := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	}

	if msg.Priority == PriorityHigh {
		m.Android = &messaging.AndroidConfig{Priority: "high"}
		m.APNS = &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
		}
	}

	return m
}
