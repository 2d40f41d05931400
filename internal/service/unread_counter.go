package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"metachat/notification-service/internal/models"
	"metachat/notification-service/internal/repository"
)

// UnreadCounter bumps the per-participant unread counters of a chat room for
// every new message. Increments commute, so concurrent invocations for the
// same room may commit in any order.
type UnreadCounter struct {
	rooms  repository.ChatRoomRepository
	logger *logrus.Logger
}

func NewUnreadCounter(rooms repository.ChatRoomRepository, logger *logrus.Logger) *UnreadCounter {
	return &UnreadCounter{
		rooms:  rooms,
		logger: logger,
	}
}

func (u *UnreadCounter) IncrementForMessage(ctx context.Context, chatRoomID string, msg *models.Message) error {
	if msg == nil {
		u.logger.WithField("chat_room_id", chatRoomID).Info("No data associated with the event")
		return nil
	}

	log := u.logger.WithFields(logrus.Fields{
		"chat_room_id": chatRoomID,
		"sender_id":    msg.SenderID,
	})

	room, err := u.rooms.GetChatRoom(ctx, chatRoomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("Chat room not found")
			return nil
		}
		return fmt.Errorf("get chat room %s: %w", chatRoomID, err)
	}

	if len(room.Participants) == 0 {
		log.Info("No participants found")
		return nil
	}

	recipients := lo.Uniq(lo.Without(room.Participants, msg.SenderID))
	if len(recipients) == 0 {
		log.Debug("Sender is the only participant")
		return nil
	}

	if err := u.rooms.IncrementUnreadCounts(ctx, chatRoomID, recipients); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("Chat room removed before counters were written")
			return nil
		}
		return fmt.Errorf("increment unread counts in %s: %w", chatRoomID, err)
	}

	log.WithField("recipient_count", len(recipients)).Info("Unread counters incremented")
	return nil
}
