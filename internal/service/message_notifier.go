package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"metachat/notification-service/internal/models"
	"metachat/notification-service/internal/push"
	"metachat/notification-service/internal/repository"
)

const flutterClickAction = "FLUTTER_NOTIFICATION_CLICK"

// MessageNotifier pushes a new chat message to every participant's devices
// except the sender's.
type MessageNotifier struct {
	rooms   repository.ChatRoomRepository
	users   repository.UserRepository
	gateway push.Gateway
	logger  *logrus.Logger
}

func NewMessageNotifier(rooms repository.ChatRoomRepository, users repository.UserRepository, gateway push.Gateway, logger *logrus.Logger) *MessageNotifier {
	return &MessageNotifier{
		rooms:   rooms,
		users:   users,
		gateway: gateway,
		logger:  logger,
	}
}

// NotifyNewMessage handles the creation of msg under chat room chatRoomID.
// A nil msg stands for an event without a document snapshot.
func (n *MessageNotifier) NotifyNewMessage(ctx context.Context, chatRoomID string, msg *models.Message) error {
	if msg == nil {
		n.logger.WithField("chat_room_id", chatRoomID).Info("No data associated with the event")
		return nil
	}

	log := n.logger.WithFields(logrus.Fields{
		"chat_room_id": chatRoomID,
		"sender_id":    msg.SenderID,
	})

	room, err := n.rooms.GetChatRoom(ctx, chatRoomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("Chat room not found")
			return nil
		}
		return fmt.Errorf("get chat room %s: %w", chatRoomID, err)
	}

	if len(room.Participants) == 0 {
		log.Info("No participants found in the chat room")
		return nil
	}

	var tokens []string
	for _, userID := range lo.Without(room.Participants, msg.SenderID) {
		user, err := n.users.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.WithField("user_id", userID).Debug("Participant has no user record")
				continue
			}
			return fmt.Errorf("get user %s: %w", userID, err)
		}
		tokens = append(tokens, user.FCMTokens...)
	}

	if len(tokens) == 0 {
		log.Info("No device tokens to send notifications to")
		return nil
	}

	log.WithField("token_count", len(tokens)).Info("Sending message notification")

	result, err := n.gateway.SendMulticast(ctx, &push.MulticastMessage{
		Tokens: tokens,
		Title:  fmt.Sprintf("New message from %s", msg.SenderName),
		Body:   msg.Message,
		Data: map[string]string{
			"chatRoomId":   chatRoomID,
			"click_action": flutterClickAction,
		},
		Priority: push.PriorityNormal,
	})
	if err != nil {
		return fmt.Errorf("send message notification: %w", err)
	}

	logResult(log, result)
	return nil
}

func logResult(log *logrus.Entry, result *push.BatchResult) {
	if result == nil {
		return
	}
	entry := log.WithFields(logrus.Fields{
		"success_count": result.SuccessCount,
		"failure_count": result.FailureCount,
	})
	if len(result.InvalidTokens) > 0 {
		entry = entry.WithField("invalid_tokens", len(result.InvalidTokens))
	}
	entry.Info("Multicast delivered")
}
