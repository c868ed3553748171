// Package server содержит gRPC-сервер проверки состояния сервиса
// (стандартный протокол grpc.health.v1). Статус обновляется по результату
// периодической проверки базы данных.
package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/banner-generator/internal/lib/sl"
)

// ServiceName имя сервиса в ответах health-проверки.
const ServiceName = "banner-generator"

// Checker проверяет зависимость, от которой зависит готовность сервиса.
type Checker interface {
	Ping(ctx context.Context) error
}

// HealthServer gRPC-сервер со службой health.
type HealthServer struct {
	log      *slog.Logger
	grpc     *grpc.Server
	health   *health.Server
	checker  Checker
	interval time.Duration
}

// NewHealthServer создаёт сервер. interval задаёт период проверки checker.
func NewHealthServer(log *slog.Logger, checker Checker, interval time.Duration) *HealthServer {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{
		log:      log,
		grpc:     srv,
		health:   hs,
		checker:  checker,
		interval: interval,
	}
}

// Check один раз проверяет зависимость и выставляет статус.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	const op = "grpc.HealthServer.Check"

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.checker.Ping(ctx); err != nil {
		s.log.Warn("health check failed", slog.String("op", op), sl.Err(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve принимает соединения на lis, пока не отменён ctx.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	s.Check(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gRPC health service listening on", slog.String("address", lis.Addr().String()))
		errCh <- s.grpc.Serve(lis)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.grpc.GracefulStop()
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, s.interval)
			s.Check(checkCtx)
			cancel()
		}
	}
}
