package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"metachat/notification-service/internal/models"
)

// PostgresStore keeps chat rooms, unread counters and device-token registries
// in PostgreSQL. A NULL participants column is the equivalent of a chat room
// document without a participants field.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

func (r *PostgresStore) InitializeTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS chat_rooms (
		id TEXT PRIMARY KEY,
		participants TEXT[],
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS chat_room_unread_counts (
		chat_room_id TEXT NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		unread_count BIGINT NOT NULL DEFAULT 0 CHECK (unread_count >= 0),
		PRIMARY KEY (chat_room_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		fcm_tokens TEXT[],
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_unread_counts_user ON chat_room_unread_counts(user_id);
	`

	_, err := r.db.Exec(query)
	return err
}

func (r *PostgresStore) GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error) {
	query := `SELECT id, participants FROM chat_rooms WHERE id = $1`

	var room models.ChatRoom
	var participants pq.StringArray
	err := r.db.QueryRowContext(ctx, query, id).Scan(&room.ID, &participants)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if participants != nil {
		room.Participants = []string(participants)
	}

	countsQuery := `SELECT user_id, unread_count FROM chat_room_unread_counts WHERE chat_room_id = $1`

	rows, err := r.db.QueryContext(ctx, countsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	room.UnreadCounts = make(map[string]int64)
	for rows.Next() {
		var userID string
		var count int64
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, err
		}
		room.UnreadCounts[userID] = count
	}

	return &room, rows.Err()
}

func (r *PostgresStore) IncrementUnreadCounts(ctx context.Context, chatRoomID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unread counter batch: %w", err)
	}
	defer tx.Rollback()

	// Touching the room first locks its row, so it cannot vanish under the
	// counter upserts.
	touchQuery := `UPDATE chat_rooms SET updated_at = NOW() WHERE id = $1`
	result, err := tx.ExecContext(ctx, touchQuery, chatRoomID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	query := `INSERT INTO chat_room_unread_counts (chat_room_id, user_id, unread_count) VALUES ($1, $2, 1)
	ON CONFLICT (chat_room_id, user_id) DO UPDATE SET unread_count = chat_room_unread_counts.unread_count + 1`

	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx, query, chatRoomID, userID); err != nil {
			return fmt.Errorf("increment unread count for %s: %w", userID, err)
		}
	}

	return tx.Commit()
}

func (r *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, fcm_tokens FROM users WHERE id = $1`

	var user models.User
	var tokens pq.StringArray
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &tokens)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tokens != nil {
		user.FCMTokens = []string(tokens)
	}

	return &user, nil
}
