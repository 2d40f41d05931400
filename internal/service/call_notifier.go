package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"metachat/notification-service/internal/models"
	"metachat/notification-service/internal/push"
	"metachat/notification-service/internal/repository"
)

const incomingCallType = "incoming_call"

// CallNotifier rings the receiver's devices when a call record is created.
type CallNotifier struct {
	users   repository.UserRepository
	gateway push.Gateway
	logger  *logrus.Logger
}

func NewCallNotifier(users repository.UserRepository, gateway push.Gateway, logger *logrus.Logger) *CallNotifier {
	return &CallNotifier{
		users:   users,
		gateway: gateway,
		logger:  logger,
	}
}

func (c *CallNotifier) NotifyIncomingCall(ctx context.Context, callID string, call *models.Call) error {
	if call == nil {
		c.logger.WithField("call_id", callID).Info("No data associated with the event")
		return nil
	}

	log := c.logger.WithFields(logrus.Fields{
		"call_id":     callID,
		"receiver_id": call.ReceiverID,
	})

	if call.ReceiverID == "" {
		log.Info("Call has no receiver")
		return nil
	}

	receiver, err := c.users.GetUser(ctx, call.ReceiverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("Receiver not found")
			return nil
		}
		return fmt.Errorf("get user %s: %w", call.ReceiverID, err)
	}

	if len(receiver.FCMTokens) == 0 {
		log.Info("Receiver has no device tokens")
		return nil
	}

	log.WithField("token_count", len(receiver.FCMTokens)).Info("Sending call notification")

	result, err := c.gateway.SendMulticast(ctx, &push.MulticastMessage{
		Tokens: receiver.FCMTokens,
		Title:  "Incoming Call",
		Body:   fmt.Sprintf("%s is calling you", call.CallerName),
		Data: map[string]string{
			"type":        incomingCallType,
			"channelName": call.ChannelName,
			"callerName":  call.CallerName,
		},
		Priority: push.PriorityHigh,
	})
	if err != nil {
		return fmt.Errorf("send call notification: %w", err)
	}

	logResult(log, result)
	return nil
}
