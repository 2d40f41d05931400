package grpc

import (
	"context"
	"errors"

	"metachat/notification-service/internal/auth"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthInterceptor resolves the caller from "authorization: Bearer" metadata.
// Calls without a token proceed anonymously and each method decides what an
// anonymous caller may do; a token that fails verification is rejected here.
func AuthInterceptor(verifier auth.Verifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		values := md.Get(auth.AuthHeaderKey)
		if len(values) == 0 {
			return handler(ctx, req)
		}

		raw, err := auth.BearerToken(values[0])
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		userID, err := verifier.Verify(ctx, raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, auth.ErrInvalidToken.Error())
		}

		return handler(auth.WithCaller(ctx, userID), req)
	}
}
