package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"metachat/notification-service/internal/models"
)

const unreadCountsField = "unreadCounts"

// FirestoreStore reads and writes the managed document database directly:
// ChatRoom/{id}, users/{id}.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error) {
	snap, err := s.client.Collection(ChatRoomCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var room models.ChatRoom
	if err := snap.DataTo(&room); err != nil {
		return nil, fmt.Errorf("decode chat room %s: %w", id, err)
	}
	room.ID = snap.Ref.ID

	return &room, nil
}

// IncrementUnreadCounts issues one Update carrying a field increment per user.
func (s *FirestoreStore) IncrementUnreadCounts(ctx context.Context, chatRoomID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	_, err := s.client.Collection(ChatRoomCollection).Doc(chatRoomID).Update(ctx, unreadIncrements(userIDs))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// unreadIncrements builds one unreadCounts.<uid> increment per user. Field
// paths are built segment by segment so user ids containing dots stay a single
// map key.
func unreadIncrements(userIDs []string) []firestore.Update {
	updates := make([]firestore.Update, 0, len(userIDs))
	for _, userID := range userIDs {
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{unreadCountsField, userID},
			Value:     firestore.Increment(1),
		})
	}
	return updates
}

func (s *FirestoreStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	snap, err := s.client.Collection(UserCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	user.ID = snap.Ref.ID

	return &user, nil
}
