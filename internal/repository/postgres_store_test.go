package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

var (
	selectRoom   = regexp.QuoteMeta(`SELECT id, participants FROM chat_rooms WHERE id = $1`)
	selectCounts = regexp.QuoteMeta(`SELECT user_id, unread_count FROM chat_room_unread_counts WHERE chat_room_id = $1`)
	upsertCount  = regexp.QuoteMeta(`INSERT INTO chat_room_unread_counts (chat_room_id, user_id, unread_count) VALUES ($1, $2, 1)`)
	touchRoom    = regexp.QuoteMeta(`UPDATE chat_rooms SET updated_at = NOW() WHERE id = $1`)
	selectUser   = regexp.QuoteMeta(`SELECT id, fcm_tokens FROM users WHERE id = $1`)
)

func TestPostgresStore_GetChatRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("participants and counters", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(selectRoom).WithArgs("room1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "participants"}).AddRow("room1", "{alice,bob,carol}"))
		mock.ExpectQuery(selectCounts).WithArgs("room1").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "unread_count"}).
				AddRow("alice", int64(3)).
				AddRow("carol", int64(1)))

		room, err := store.GetChatRoom(ctx, "room1")
		require.NoError(t, err)
		assert.Equal(t, "room1", room.ID)
		assert.Equal(t, []string{"alice", "bob", "carol"}, room.Participants)
		assert.Equal(t, map[string]int64{"alice": 3, "carol": 1}, room.UnreadCounts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null participants", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(selectRoom).WithArgs("room1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "participants"}).AddRow("room1", nil))
		mock.ExpectQuery(selectCounts).WithArgs("room1").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "unread_count"}))

		room, err := store.GetChatRoom(ctx, "room1")
		require.NoError(t, err)
		assert.Empty(t, room.Participants)
		assert.Empty(t, room.UnreadCounts)
	})

	t.Run("not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(selectRoom).WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "participants"}))

		_, err := store.GetChatRoom(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresStore_IncrementUnreadCounts(t *testing.T) {
	ctx := context.Background()

	t.Run("one transaction for the whole batch", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(touchRoom).WithArgs("room1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsertCount).WithArgs("room1", "alice").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsertCount).WithArgs("room1", "carol").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, store.IncrementUnreadCounts(ctx, "room1", []string{"alice", "carol"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch writes nothing", func(t *testing.T) {
		store, mock := newMockStore(t)
		require.NoError(t, store.IncrementUnreadCounts(ctx, "room1", nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed increment rolls back", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(touchRoom).WithArgs("room1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsertCount).WithArgs("room1", "alice").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsertCount).WithArgs("room1", "carol").WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := store.IncrementUnreadCounts(ctx, "room1", []string{"alice", "carol"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "carol")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing room writes no counters", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(touchRoom).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.IncrementUnreadCounts(ctx, "gone", []string{"alice"})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_GetUser(t *testing.T) {
	ctx := context.Background()

	t.Run("tokens", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(selectUser).WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"id", "fcm_tokens"}).AddRow("alice", "{tok-1,tok-2}"))

		user, err := store.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.ID)
		assert.Equal(t, []string{"tok-1", "tok-2"}, user.FCMTokens)
	})

	t.Run("no tokens column", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(selectUser).WithArgs("dave").
			WillReturnRows(sqlmock.NewRows([]string{"id", "fcm_tokens"}).AddRow("dave", nil))

		user, err := store.GetUser(ctx, "dave")
		require.NoError(t, err)
		assert.Empty(t, user.FCMTokens)
	})

	t.Run("not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(selectUser).WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id", "fcm_tokens"}))

		_, err := store.GetUser(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresStore_InitializeTables(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS chat_rooms")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.InitializeTables())
	assert.NoError(t, mock.ExpectationsWereMet())
}
