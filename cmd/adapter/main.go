package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/artifact"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/config"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/engine"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/langid"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/observe"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/server"
)

// version is set at build time via -ldflags.
var version = "dev"

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 5 * time.Second

// lazyServer answers Unavailable until the real service is installed.
type lazyServer struct {
	server atomic.Pointer[server.VoiceGuardServer]
}

func (l *lazyServer) setServer(srv server.VoiceGuardServer) {
	l.server.Store(&srv)
}

func (l *lazyServer) DetectVoice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	srv := l.server.Load()
	if srv == nil {
		return nil, status.Error(codes.Unavailable, "voiceguard service is initializing, please retry in a moment")
	}
	return (*srv).DetectVoice(ctx, in)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{DotEnvFile: ".env"}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting adapter",
		"adapter", "voiceguard",
		"version", version,
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"scorer_config", cfg.Scorer,
		"model_dir", cfg.ModelDir,
		"n_mfcc", cfg.NMFCC,
		"language_detector", cfg.LanguageDetector,
		"api_key_required", cfg.APIKey != "",
	)

	// Bind before loading models so supervisors see the port immediately.
	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to bind listener", "error", err)
		os.Exit(1)
	}
	defer lis.Close()
	logger.Info("listener bound, port ready", "addr", lis.Addr().String())

	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		logger.Error("failed to initialise metrics", "error", err)
		os.Exit(1)
	}
	defer provider.Shutdown(context.Background())
	metrics, err := observe.NewMetrics(provider.MeterProvider())
	if err != nil {
		logger.Error("failed to create metric instruments", "error", err)
		os.Exit(1)
	}
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", provider.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		logger.Info("metrics endpoint started", "addr", cfg.MetricsAddr)
	}

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(server.MaxMessageBytes(cfg.MaxAudioBytes)),
	)
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(server.ServiceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	lazy := &lazyServer{}
	server.RegisterVoiceGuardServer(grpcServer, lazy)

	serverErr := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serverErr <- err
		}
	}()
	logger.Info("gRPC server started (NOT_SERVING while initializing)")

	// Artifact problems never stop the service; the heuristic takes over.
	artifacts := artifact.NewCache(cfg.ModelDir, logger)
	defer artifacts.Close()
	scorer, err := engine.Select(cfg.Scorer, artifacts, cfg.NMFCC, logger)
	if err != nil {
		logger.Error("scorer selection failed", "error", err)
		os.Exit(1)
	}
	if !artifact.ONNXAvailable() {
		logger.Debug("onnx backend not compiled in, build with -tags onnx to load .onnx classifiers")
	}

	detector, err := langid.New(cfg.LanguageDetector, cfg.WhisperModelPath, logger)
	if err != nil {
		logger.Error("language detector initialisation failed", "error", err)
		os.Exit(1)
	}
	lang := langid.NewIdentifier(detector, logger)
	defer lang.Close()

	lazy.setServer(server.New(cfg, logger, scorer, lang, metrics))
	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.ServiceName, healthgrpc.HealthCheckResponse_SERVING)
	logger.Info("adapter ready to serve requests", "scorer", scorer.Name(), "language_detection", detector != nil)

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested, stopping gRPC server")
		healthServer.SetServingStatus(server.ServiceName, healthgrpc.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(shutdownTimeout):
			logger.Warn("graceful stop timed out, forcing stop")
			grpcServer.Stop()
		}
		if metricsServer != nil {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			_ = metricsServer.Shutdown(sctx)
			cancel()
		}
		close(shutdownDone)
	}()

	select {
	case err := <-serverErr:
		logger.Error("gRPC server terminated with error", "error", err)
		os.Exit(1)
	case <-shutdownDone:
	}

	logger.Info("adapter stopped")
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
