// Package grpc hosts the server shell: the listener, the health service,
// and the access-token interceptor that authenticates every protected
// request before it reaches a handler.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/inkstone/identity/internal/logging"
	"github.com/inkstone/identity/internal/server/auth"
	"github.com/inkstone/identity/internal/server/services"
)

type GRPCServer struct {
	address string
	logger  logging.Logger
	// identity is the domain surface the lifecycle RPC handlers bind to
	// when a generated service is registered in Run; the interceptor
	// itself only needs the issuer.
	identity *services.IdentityService
	issuer   *auth.Issuer
}

func NewGRPCServer(addr string, l logging.Logger, identity *services.IdentityService, issuer *auth.Issuer) (*GRPCServer, error) {
	return &GRPCServer{
		address:  addr,
		logger:   l.With("module", "grpc_server"),
		identity: identity,
		issuer:   issuer,
	}, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	healthpb.RegisterHealthServer(srv, health.NewServer())

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
