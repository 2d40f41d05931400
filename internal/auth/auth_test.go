package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    error
	}{
		{"", "", ErrMissingToken},
		{"Bearer abc.def", "abc.def", nil},
		{"Bearer   ", "", ErrMissingToken},
		{"Basic dXNlcjpwYXNz", "", ErrInvalidToken},
		{"abc.def", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.header)
			continue
		}
		require.NoError(t, err, tt.header)
		assert.Equal(t, tt.want, got)
	}
}

func TestCallerContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", CallerFrom(ctx))
	assert.Equal(t, "alice", CallerFrom(WithCaller(ctx, "alice")))
}

func TestJWTVerifier(t *testing.T) {
	ctx := context.Background()
	v := NewJWTVerifier("secret", "metachat")

	t.Run("round trip", func(t *testing.T) {
		tok, err := v.IssueToken("alice", time.Hour)
		require.NoError(t, err)

		uid, err := v.Verify(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "alice", uid)
	})

	t.Run("subject fallback", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "metachat",
			Subject:   "bob",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		uid, err := v.Verify(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "bob", uid)
	})

	rejected := map[string]func() string{
		"wrong secret": func() string {
			tok, _ := NewJWTVerifier("other", "metachat").IssueToken("alice", time.Hour)
			return tok
		},
		"wrong issuer": func() string {
			tok, _ := NewJWTVerifier("secret", "someone-else").IssueToken("alice", time.Hour)
			return tok
		},
		"expired": func() string {
			tok, _ := v.IssueToken("alice", -time.Minute)
			return tok
		},
		"no user": func() string {
			tok, _ := v.IssueToken("", time.Hour)
			return tok
		},
		"other algorithm": func() string {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "alice"}).SignedString([]byte("secret"))
			return tok
		},
		"garbage": func() string { return "not-a-jwt" },
	}
	for name, mk := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(ctx, mk())
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
