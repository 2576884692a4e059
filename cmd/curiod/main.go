package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"curiochain/config"
	"curiochain/core"
	"curiochain/crypto"
	"curiochain/gateway"
	"curiochain/observability/logging"
	"curiochain/observability/otel"
	"curiochain/rpc"
	"curiochain/storage"
	"curiochain/storage/journal"
)

const (
	operatorPassEnv = "CURIO_OPERATOR_PASS"
	otelHeadersEnv  = "OTEL_EXPORTER_OTLP_HEADERS"

	startupTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	gatewayFile := flag.String("gateway-config", "", "Optional YAML file overriding the gateway block")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("CURIO_ENV"))
	logger := logging.Setup("curiod", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		logger.Error("Invalid config", slog.Any("error", err))
		os.Exit(1)
	}
	gatewayCfg, err := gateway.LoadConfig(*gatewayFile, cfg.Gateway)
	if err != nil {
		logger.Error("Failed to load gateway config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := otel.Init(ctx, otel.Config{
		ServiceName: "curiod",
		Environment: env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     otel.ParseHeaders(os.Getenv(otelHeadersEnv)),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		logger.Error("Failed to initialise telemetry", slog.Any("error", err))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("Failed to prepare data directory", slog.Any("error", err))
		os.Exit(1)
	}
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	jnl, err := journal.Open(cfg.JournalPath, nil)
	if err != nil {
		logger.Error("Failed to open event journal", slog.Any("error", err))
		_ = db.Close()
		os.Exit(1)
	}

	key, err := crypto.LoadFromKeystore(cfg.OperatorKeystorePath, os.Getenv(operatorPassEnv))
	if err != nil {
		logger.Error("Failed to load operator key", slog.Any("error", err))
		_ = jnl.Close()
		_ = db.Close()
		os.Exit(1)
	}

	node, err := core.NewNode(db, jnl, key, cfg)
	if err != nil {
		logger.Error("Failed to create node", slog.Any("error", err))
		_ = jnl.Close()
		_ = db.Close()
		os.Exit(1)
	}

	rpcServer := rpc.NewServer(node)
	rpcErrCh := make(chan error, 1)
	go func() {
		rpcErrCh <- rpcServer.Start(cfg.RPCAddress)
	}()
	if err := waitForStartup(cfg.RPCAddress, rpcErrCh, startupTimeout); err != nil {
		logger.Error("RPC server failed to start", slog.Any("error", err))
		_ = node.Close()
		os.Exit(1)
	}

	gw, err := gateway.New(node, gatewayCfg, "http://"+dialAddressFor(cfg.RPCAddress))
	if err != nil {
		logger.Error("Failed to create gateway", slog.Any("error", err))
		_ = node.Close()
		os.Exit(1)
	}
	gwErrCh := make(chan error, 1)
	go func() {
		gwErrCh <- gw.Start(gatewayCfg.ListenAddress)
	}()
	if err := waitForStartup(gatewayCfg.ListenAddress, gwErrCh, startupTimeout); err != nil {
		logger.Error("Gateway failed to start", slog.Any("error", err))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = rpcServer.Shutdown(shutdownCtx)
		cancel()
		_ = node.Close()
		os.Exit(1)
	}

	logger.Info("Curio node running",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress),
		slog.String("gateway", gatewayCfg.ListenAddress),
		slog.String("operator", node.OperatorAddress()))

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-rpcErrCh:
		if err != nil {
			logger.Error("RPC server terminated", slog.Any("error", err))
			exitCode = 1
		}
	case err := <-gwErrCh:
		if err != nil {
			logger.Error("Gateway terminated", slog.Any("error", err))
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Gateway shutdown", slog.Any("error", err))
	}
	if err := rpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("RPC shutdown", slog.Any("error", err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("Telemetry shutdown", slog.Any("error", err))
	}
	if err := node.Close(); err != nil {
		logger.Warn("Node close", slog.Any("error", err))
	}
	os.Exit(exitCode)
}

// waitForStartup confirms the server accepts connections before the caller
// moves on, surfacing an early listener failure instead of timing out.
func waitForStartup(addr string, errCh <-chan error, timeout time.Duration) error {
	dialAddr := dialAddressFor(addr)
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
			return fmt.Errorf("server exited before startup confirmation")
		default:
		}

		conn, err := net.DialTimeout("tcp", dialAddr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
			return fmt.Errorf("server exited before startup confirmation")
		case <-ticker.C:
		case <-deadline.C:
			return fmt.Errorf("timed out waiting for listener on %s", addr)
		}
	}
}

func dialAddressFor(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
