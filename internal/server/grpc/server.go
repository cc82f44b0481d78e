// Package grpc exposes the remote store over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
	"google.golang.org/grpc"
)

type StoreService interface {
	Insert(ctx context.Context, rec models.Record) error
	Update(ctx context.Context, rec models.Record) error
	Delete(ctx context.Context, table models.Table, id string) error
	Select(ctx context.Context, q rpc.SelectQuery) ([]models.Record, error)
}

type MediaService interface {
	Presign(ctx context.Context, key string, method rpc.PresignMethod) (string, error)
}

// RateLimit is the per-device request budget. A zero PerSecond turns
// limiting off.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

type GRPCServer struct {
	address string
	store   StoreService
	media   MediaService
	logger  logging.Logger
	limiter *deviceLimiter
}

func NewGRPCServer(address string, l logging.Logger, store StoreService, media MediaService, rl RateLimit) *GRPCServer {
	s := &GRPCServer{
		address: address,
		logger:  l.With("module", "grpc_server"),
		store:   store,
		media:   media,
	}
	if rl.PerSecond > 0 {
		s.limiter = newDeviceLimiter(rl.PerSecond, rl.Burst)
	}
	return s
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.rateLimitInterceptor))
	rpc.RegisterRemoteStoreServer(srv, s)

	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
