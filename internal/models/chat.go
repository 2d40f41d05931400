package models

import (
	"time"
)

type ChatRoom struct {
	ID           string           `firestore:"-"`
	Participants []string         `firestore:"participants"`
	UnreadCounts map[string]int64 `firestore:"unreadCounts"`
}

type Message struct {
	ID         string `mapstructure:"-"`
	ChatRoomID string `mapstructure:"-"`
	SenderID   string `mapstructure:"senderId"`
	SenderName string `mapstructure:"senderName"`
	Message    string `mapstructure:"message"`
}

type User struct {
	ID        string   `firestore:"-" json:"id"`
	FCMTokens []string `firestore:"fcmTokens" json:"fcmTokens"`
}

type Call struct {
	ID          string `mapstructure:"-"`
	ReceiverID  string `mapstructure:"receiverId"`
	CallerName  string `mapstructure:"callerName"`
	ChannelName string `mapstructure:"channelName"`
}

// AccessToken is computed on demand and never persisted.
type AccessToken struct {
	Token       string
	ChannelName string
	ExpiresAt   time.Time
}
