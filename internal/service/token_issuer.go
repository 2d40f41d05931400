package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"metachat/notification-service/internal/models"
	"metachat/notification-service/internal/token"
)

const (
	TokenLifetime = 3600 * time.Second

	// Tokens are not bound to a specific media uid.
	anyUID uint32 = 0
)

// Credentials are the long-term signing secrets of the media service.
type Credentials struct {
	AppID          string
	AppCertificate string
}

type TokenIssuerOption func(*TokenIssuer)

// WithClock overrides the time source used for expirations.
func WithClock(now func() time.Time) TokenIssuerOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

// TokenIssuer mints short-lived media-session tokens for authenticated callers.
type TokenIssuer struct {
	signer token.Signer
	creds  Credentials
	now    func() time.Time
	logger *logrus.Logger
}

func NewTokenIssuer(signer token.Signer, creds Credentials, logger *logrus.Logger, opts ...TokenIssuerOption) *TokenIssuer {
	t := &TokenIssuer{
		signer: signer,
		creds:  creds,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IssueToken checks authentication before arguments, so an anonymous call
// with a missing channel is reported as unauthenticated.
func (t *TokenIssuer) IssueToken(ctx context.Context, callerID, channelName string) (*models.AccessToken, error) {
	if callerID == "" {
		return nil, newCallerError(KindUnauthenticated, "the function must be called while authenticated")
	}
	if strings.TrimSpace(channelName) == "" {
		return nil, newCallerError(KindInvalidArgument, "the function must be called with a channelName")
	}

	expiresAt := t.now().Add(TokenLifetime).Truncate(time.Second)

	signed, err := t.signer.Sign(t.creds.AppID, t.creds.AppCertificate, channelName, anyUID, token.RolePublisher, uint32(expiresAt.Unix()))
	if err != nil {
		return nil, fmt.Errorf("sign media token: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"caller_id":    callerID,
		"channel_name": channelName,
		"expires_at":   expiresAt.Unix(),
	}).Info("Media token issued")

	return &models.AccessToken{
		Token:       signed,
		ChannelName: channelName,
		ExpiresAt:   expiresAt,
	}, nil
}
