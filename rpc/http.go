package rpc

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"curiochain/core"
	"curiochain/observability"
)

const (
	// AuthTokenEnv names the environment variable carrying the bearer
	// token that guards mutating methods.
	AuthTokenEnv = "CURIO_RPC_TOKEN"

	rateLimitWindow     = time.Minute
	maxWritesPerWindow  = 60
	readHeaderTimeout   = 10 * time.Second
	serverWriteTimeout  = 30 * time.Second
	serverIdleTimeout   = 120 * time.Second
	shutdownGracePeriod = 5 * time.Second
)

type rateLimiter struct {
	count       int
	windowStart time.Time
}

// Server exposes the node over JSON-RPC 2.0. Views are open; every method
// that moves value or changes records requires the bearer token and is rate
// limited per client source.
type Server struct {
	node      *core.Node
	authToken string

	mu           sync.Mutex
	rateLimiters map[string]*rateLimiter

	serverMu   sync.Mutex
	httpServer *http.Server
}

// NewServer builds a server around a wired node. The auth token is read
// from the environment so it never lands in config files.
func NewServer(node *core.Node) *Server {
	return &Server{
		node:         node,
		authToken:    strings.TrimSpace(os.Getenv(AuthTokenEnv)),
		rateLimiters: make(map[string]*rateLimiter),
	}
}

// Handler returns the HTTP handler serving the JSON-RPC endpoint and the
// websocket event stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.HandleFunc("/ws/events", s.handleEventStream)
	return mux
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      serverWriteTimeout,
		IdleTimeout:       serverIdleTimeout,
	}
	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	srv := s.httpServer
	s.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	graceCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()
	return srv.Shutdown(graceCtx)
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	s.dispatch(sw, r, req)
	module, method := splitMethod(req.Method)
	observability.ModuleMetrics().Observe(module, method, sw.status, time.Since(start))
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	// Token lifecycle.
	case "curio_mint":
		s.guarded(w, r, req, s.handleMint)
	case "curio_burn":
		s.guarded(w, r, req, s.handleBurn)
	case "curio_transfer":
		s.guarded(w, r, req, s.handleTransfer)
	case "curio_royalty":
		s.guarded(w, r, req, s.handleRoyalty)
	case "curio_fundPlatform":
		s.guarded(w, r, req, s.handleFundPlatform)
	case "curio_getBalance":
		s.handleGetBalance(w, r, req)

	// Holder rewards.
	case "rewards_claim":
		s.guarded(w, r, req, s.handleRewardsClaim)
	case "rewards_pending":
		s.handleRewardsPending(w, r, req)
	case "rewards_pool":
		s.handleRewardsPool(w, r, req)
	case "rewards_position":
		s.handleRewardsPosition(w, r, req)
	case "rewards_audit":
		s.handleRewardsAudit(w, r, req)

	// Creator distribution shares.
	case "creator_register":
		s.guarded(w, r, req, s.handleCreatorRegister)
	case "creator_setShare":
		s.guarded(w, r, req, s.handleCreatorSetShare)
	case "creator_claim":
		s.guarded(w, r, req, s.handleCreatorClaim)
	case "creator_pending":
		s.handleCreatorPending(w, r, req)
	case "creator_shares":
		s.handleCreatorShares(w, r, req)

	// Treasuries and distribution.
	case "treasury_status":
		s.handleTreasuryStatus(w, r, req)
	case "treasury_sweep":
		s.guarded(w, r, req, s.handleTreasurySweep)

	// Subscriptions.
	case "subs_subscribe":
		s.guarded(w, r, req, s.handleSubscribe)
	case "subs_cancel":
		s.guarded(w, r, req, s.handleSubsCancel)
	case "subs_get":
		s.handleSubsGet(w, r, req)
	case "subs_list":
		s.handleSubsList(w, r, req)
	case "subs_process":
		s.guarded(w, r, req, s.handleSubsProcess)
	case "subs_processDue":
		s.guarded(w, r, req, s.handleSubsProcessDue)

	// Event journal.
	case "events_head":
		s.handleEventsHead(w, r, req)
	case "events_after":
		s.handleEventsAfter(w, r, req)
	case "events_verify":
		s.handleEventsVerify(w, r, req)

	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}

type handlerFunc func(http.ResponseWriter, *http.Request, *RPCRequest)

// guarded enforces the bearer token and per-source rate limit before
// delegating to a mutating handler.
func (s *Server) guarded(w http.ResponseWriter, r *http.Request, req *RPCRequest, next handlerFunc) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	if !s.allowSource(clientSource(r), time.Now()) {
		module, _ := splitMethod(req.Method)
		observability.ModuleMetrics().RecordThrottle(module, "rate_limit")
		writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "write rate limit exceeded", nil)
		return
	}
	next(w, r, req)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func (s *Server) allowSource(source string, now time.Time) bool {
	if source == "" {
		source = "unknown"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.rateLimiters[source]
	if !ok {
		limiter = &rateLimiter{windowStart: now}
		s.rateLimiters[source] = limiter
	}
	if now.Sub(limiter.windowStart) >= rateLimitWindow {
		limiter.windowStart = now
		limiter.count = 0
	}
	if limiter.count >= maxWritesPerWindow {
		return false
	}
	limiter.count++
	return true
}

func clientSource(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func splitMethod(method string) (string, string) {
	if idx := strings.IndexByte(method, '_'); idx > 0 {
		return method[:idx], method[idx+1:]
	}
	return method, method
}
