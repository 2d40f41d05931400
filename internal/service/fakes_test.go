package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"metachat/notification-service/internal/models"
	"metachat/notification-service/internal/push"
	"metachat/notification-service/internal/repository"
)

type fakeStore struct {
	mu       sync.Mutex
	rooms    map[string]*models.ChatRoom
	users    map[string]*models.User
	batches  [][]string
	roomErr  error
	userErr  error
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms: make(map[string]*models.ChatRoom),
		users: make(map[string]*models.User),
	}
}

func (s *fakeStore) addRoom(id string, participants ...string) {
	s.rooms[id] = &models.ChatRoom{ID: id, Participants: participants, UnreadCounts: map[string]int64{}}
}

func (s *fakeStore) addUser(id string, tokens ...string) {
	s.users[id] = &models.User{ID: id, FCMTokens: tokens}
}

func (s *fakeStore) GetChatRoom(_ context.Context, id string) (*models.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomErr != nil {
		return nil, s.roomErr
	}
	room, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *room
	cp.Participants = append([]string(nil), room.Participants...)
	return &cp, nil
}

func (s *fakeStore) IncrementUnreadCounts(_ context.Context, chatRoomID string, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	room, ok := s.rooms[chatRoomID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range userIDs {
		room.UnreadCounts[id]++
	}
	s.batches = append(s.batches, append([]string(nil), userIDs...))
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *fakeStore) unread(roomID, userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[roomID].UnreadCounts[userID]
}

type recordingGateway struct {
	mu   sync.Mutex
	sent []*push.MulticastMessage
	err  error
}

func (g *recordingGateway) SendMulticast(_ context.Context, msg *push.MulticastMessage) (*push.BatchResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.sent = append(g.sent, msg)
	return &push.BatchResult{SuccessCount: len(msg.Tokens)}, nil
}

var errBoom = errors.New("boom")

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}
