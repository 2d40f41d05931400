package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the privilege a media-session token grants inside its channel.
type Role int

const (
	RolePublisher  Role = 1
	RoleSubscriber Role = 2
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Signer produces an opaque media-session credential. Implementations must be
// deterministic: identical inputs yield identical tokens.
type Signer interface {
	Sign(appID, appCertificate, channelName string, uid uint32, role Role, expireAt uint32) (string, error)
}

// Claims carried by a media-session token.
type Claims struct {
	jwt.RegisteredClaims
	AppID   string `json:"app_id"`
	Channel string `json:"channel"`
	UID     uint32 `json:"uid"`
	Role    Role   `json:"role"`
}

// JWTSigner signs media-session tokens with HS256 keyed by the application
// certificate. No issue time or nonce is embedded, which keeps signing
// deterministic.
type JWTSigner struct{}

func NewJWTSigner() *JWTSigner {
	return &JWTSigner{}
}

func (s *JWTSigner) Sign(appID, appCertificate, channelName string, uid uint32, role Role, expireAt uint32) (string, error) {
	if appID == "" || appCertificate == "" {
		return "", errors.New("app id and app certificate are required")
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    appID,
			ExpiresAt: jwt.NewNumericDate(time.Unix(int64(expireAt), 0)),
		},
		AppID:   appID,
		Channel: channelName,
		UID:     uid,
		Role:    role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(appCertificate))
}

// Verify parses a token produced by Sign. Media servers holding the same
// certificate use it to admit clients.
func Verify(appCertificate, tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(appCertificate), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
