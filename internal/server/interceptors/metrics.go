package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// RPCObserver records the outcome of one RPC.
type RPCObserver interface {
	ObserveRPC(method, code string, d time.Duration)
}

// MetricsUnary returns a unary server interceptor that reports every RPC's
// status code and duration. skipMethods are not reported (e.g. health checks).
func MetricsUnary(obs RPCObserver, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if obs == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		obs.ObserveRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}
