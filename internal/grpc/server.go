package grpc

import (
	"context"

	"metachat/notification-service/internal/auth"
	"metachat/notification-service/internal/service"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type TokenServer struct {
	issuer *service.TokenIssuer
	logger *logrus.Logger
}

func NewTokenServer(issuer *service.TokenIssuer, logger *logrus.Logger) *TokenServer {
	return &TokenServer{
		issuer: issuer,
		logger: logger,
	}
}

func (s *TokenServer) IssueToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	channelName := req.GetFields()["channelName"].GetStringValue()

	s.logger.WithField("channel_name", channelName).Info("Issuing media token via gRPC")

	tok, err := s.issuer.IssueToken(ctx, auth.CallerFrom(ctx), channelName)
	if err != nil {
		return nil, toStatus(err)
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"token": structpb.NewStringValue(tok.Token),
		},
	}, nil
}

func toStatus(err error) error {
	if ce, ok := service.AsCallerError(err); ok {
		switch ce.Kind {
		case service.KindUnauthenticated:
			return status.Error(codes.Unauthenticated, ce.Message)
		case service.KindInvalidArgument:
			return status.Error(codes.InvalidArgument, ce.Message)
		}
	}
	return status.Errorf(codes.Internal, "failed to issue token: %v", err)
}
