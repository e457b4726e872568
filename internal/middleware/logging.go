package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Logging logs every unary call with its outcome and latency.
func Logging(logger *zap.Logger) grpc.UnaryServerInterceptor {
	logger = logger.Named("rpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			logger.Warn("call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("call", fields...)
		}
		return resp, err
	}
}
