package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"curiochain/config"
	"curiochain/core"
)

const (
	readHeaderTimeout   = 10 * time.Second
	serverIdleTimeout   = 120 * time.Second
	shutdownGracePeriod = 5 * time.Second
	proxyTimeout        = 15 * time.Second
)

// Gateway is the public read surface in front of a node: REST views, a
// journal websocket stream, and a passthrough to the JSON-RPC endpoint.
// Mutations stay behind the RPC server's bearer token; the gateway only
// ever reads node state directly.
type Gateway struct {
	node    *core.Node
	logger  *slog.Logger
	cfg     config.Gateway
	secret  []byte
	limiter *clientLimiter
	proxy   http.Handler
	tracer  trace.Tracer

	serverMu   sync.Mutex
	httpServer *http.Server
}

// New wires a gateway over a node. rpcURL points at the local JSON-RPC
// listener for the /rpc passthrough; empty disables it. The JWT secret
// is read from the environment variable named in the config; while it is
// unset the read surface is served without authentication.
func New(node *core.Node, cfg config.Gateway, rpcURL string) (*Gateway, error) {
	if node == nil {
		return nil, fmt.Errorf("gateway: node required")
	}
	g := &Gateway{
		node:    node,
		logger:  slog.Default().With("component", "gateway"),
		cfg:     cfg,
		secret:  []byte(strings.TrimSpace(os.Getenv(cfg.JWTSecretEnv))),
		limiter: newClientLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		tracer:  otel.Tracer("curio-gateway"),
	}
	if strings.TrimSpace(rpcURL) != "" {
		proxy, err := newRPCProxy(rpcURL, g.logger)
		if err != nil {
			return nil, err
		}
		g.proxy = proxy
	}
	return g, nil
}

// Router assembles the HTTP surface. Health and metrics stay open; the
// versioned API group carries rate limiting, authentication, and request
// accounting.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware(g.cfg.AllowedOrigins))
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if g.proxy != nil {
		r.With(g.rateLimit).Handle("/rpc", g.proxy)
	}

	r.Route("/v1", func(sr chi.Router) {
		sr.Use(g.rateLimit)
		sr.Use(g.authenticate)
		sr.Group(func(views chi.Router) {
			views.Use(g.observe)
			views.Get("/positions/{token}", g.handlePosition)
			views.Get("/positions/{token}/rewards", g.handlePositionRewards)
			views.Get("/pools/{id}", g.handlePool)
			views.Get("/creators/{creator}/shares", g.handleCreatorShares)
			views.Get("/creators/{creator}/members/{member}/pending", g.handleCreatorPending)
			views.Get("/treasuries/{scope}", g.handleTreasury)
			views.Get("/subscriptions", g.handleSubscriptions)
			views.Get("/subscriptions/{id}", g.handleSubscription)
			views.Get("/accounts/{address}", g.handleAccount)
			views.Get("/events", g.handleEvents)
			views.Get("/events/head", g.handleEventsHead)
			views.Post("/claims", g.handleClaim)
		})
		// The stream handler hijacks the connection, so it stays outside
		// the wrapping request recorder.
		sr.Get("/events/stream", g.handleEventStream)
	})

	return otelhttp.NewHandler(r, "gateway")
}

// Start serves until the listener fails or Shutdown is called.
func (g *Gateway) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           g.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       serverIdleTimeout,
	}
	g.serverMu.Lock()
	g.httpServer = srv
	g.serverMu.Unlock()
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.serverMu.Lock()
	srv := g.httpServer
	g.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	graceCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()
	return srv.Shutdown(graceCtx)
}

// newRPCProxy forwards /rpc traffic to the JSON-RPC listener, carrying
// the trace context across the hop.
func newRPCProxy(rpcURL string, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse rpc url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("gateway: rpc url %q needs a scheme and host", rpcURL)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Director = func(req *http.Request) {
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.URL.Path = "/"
		req.Host = target.Host
		otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
		logger.Warn("rpc proxy failed", "error", err)
		http.Error(w, "rpc upstream unavailable", http.StatusBadGateway)
	}
	proxy.Transport = otelhttp.NewTransport(&http.Transport{
		ResponseHeaderTimeout: proxyTimeout,
	})
	return proxy, nil
}
