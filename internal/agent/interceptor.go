package agent

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// activityInterceptor resets the idle timer on every request except Status,
// so polling the agent does not keep a vault unlocked.
func (s *Server) activityInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if info.FullMethod != MethodStatus {
		s.idle.Touch()
	}
	return handler(ctx, req)
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Warn(ctx, "request failed", "method", info.FullMethod, "code", status.Code(err).String())
	} else {
		s.logger.Debug(ctx, "request", "method", info.FullMethod)
	}
	return resp, err
}
