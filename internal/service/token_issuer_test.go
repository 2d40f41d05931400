package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"metachat/notification-service/internal/service"
	"metachat/notification-service/internal/token"
)

type signCall struct {
	appID, appCertificate, channel string
	uid                            uint32
	role                           token.Role
	expireAt                       uint32
}

type fakeSigner struct {
	calls []signCall
	err   error
}

func (s *fakeSigner) Sign(appID, appCertificate, channelName string, uid uint32, role token.Role, expireAt uint32) (string, error) {
	s.calls = append(s.calls, signCall{appID, appCertificate, channelName, uid, role, expireAt})
	if s.err != nil {
		return "", s.err
	}
	return "signed-" + channelName, nil
}

func TestTokenIssuer_IssueToken(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 250_000_000)
	creds := service.Credentials{AppID: "app-id", AppCertificate: "app-cert"}

	newIssuer := func(s token.Signer) *service.TokenIssuer {
		return service.NewTokenIssuer(s, creds, newTestLogger(), service.WithClock(func() time.Time { return now }))
	}

	t.Run("issues a publisher token valid for one hour", func(t *testing.T) {
		req := require.New(t)
		signer := &fakeSigner{}

		tok, err := newIssuer(signer).IssueToken(ctx, "alice", "chan-1")
		req.NoError(err)
		req.Equal("signed-chan-1", tok.Token)
		req.Equal("chan-1", tok.ChannelName)
		req.Equal(int64(1_700_003_600), tok.ExpiresAt.Unix())

		req.Len(signer.calls, 1)
		req.Equal(signCall{
			appID:          "app-id",
			appCertificate: "app-cert",
			channel:        "chan-1",
			uid:            0,
			role:           token.RolePublisher,
			expireAt:       1_700_003_600,
		}, signer.calls[0])
	})

	t.Run("unauthenticated caller", func(t *testing.T) {
		req := require.New(t)
		signer := &fakeSigner{}

		_, err := newIssuer(signer).IssueToken(ctx, "", "chan-1")
		ce, ok := service.AsCallerError(err)
		req.True(ok)
		req.Equal(service.KindUnauthenticated, ce.Kind)
		req.Empty(signer.calls)
	})

	t.Run("authentication is checked before arguments", func(t *testing.T) {
		_, err := newIssuer(&fakeSigner{}).IssueToken(ctx, "", "")
		ce, ok := service.AsCallerError(err)
		require.True(t, ok)
		require.Equal(t, service.KindUnauthenticated, ce.Kind)
	})

	t.Run("empty channel name", func(t *testing.T) {
		req := require.New(t)
		signer := &fakeSigner{}

		for _, channel := range []string{"", "   "} {
			_, err := newIssuer(signer).IssueToken(ctx, "alice", channel)
			ce, ok := service.AsCallerError(err)
			req.True(ok)
			req.Equal(service.KindInvalidArgument, ce.Kind)
		}
		req.Empty(signer.calls)
	})

	t.Run("signing failure is not a caller error", func(t *testing.T) {
		_, err := newIssuer(&fakeSigner{err: errBoom}).IssueToken(ctx, "alice", "chan-1")
		require.ErrorIs(t, err, errBoom)
		_, ok := service.AsCallerError(err)
		require.False(t, ok)
	})
}
