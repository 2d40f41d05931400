package repository

import (
	"context"
	"errors"

	"metachat/notification-service/internal/models"
)

const (
	ChatRoomCollection = "ChatRoom"
	MessageCollection  = "messages"
	UserCollection     = "users"
	CallCollection     = "calls"
)

var ErrNotFound = errors.New("document not found")

type ChatRoomRepository interface {
	GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error)
	// IncrementUnreadCounts adds 1 to the unread count of every user in a
	// single atomic write. All increments apply or none do.
	IncrementUnreadCounts(ctx context.Context, chatRoomID string, userIDs []string) error
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}
