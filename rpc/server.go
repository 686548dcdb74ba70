package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"launchpad/core"
	"launchpad/observability"
)

const (
	maxRequestBytes = 1 << 20 // 1 MiB
	idleVisitorTTL  = 10 * time.Minute
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeRateLimited    = -32020
	codeUnavailable    = -32030
	codeRejected       = -32040
)

type ServerConfig struct {
	ListenAddress string
	Auth          AuthConfig
	RateLimit     RateLimit
}

// Server exposes the ledger over JSON-RPC 2.0.
type Server struct {
	engine  *core.Engine
	logger  *slog.Logger
	auth    *Authenticator
	limiter *RateLimiter
	handler http.Handler
	httpSrv *http.Server
}

func NewServer(engine *core.Engine, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:  engine,
		logger:  logger,
		auth:    NewAuthenticator(cfg.Auth, logger),
		limiter: NewRateLimiter(cfg.RateLimit),
	}
	s.handler = s.routes()
	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Use(s.auth.Middleware)
		r.Post("/", s.ServeRPC)
		r.Post("/rpc", s.ServeRPC)
	})
	return otelhttp.NewHandler(r, "launchpad.rpc")
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	go s.sweepVisitors(ctx)
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc server listening", slog.String("addr", s.httpSrv.Addr))
		errCh <- s.httpSrv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) sweepVisitors(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Sweep(idleVisitorTTL)
		}
	}
}

// ServeRPC decodes one JSON-RPC request and dispatches it.
func (s *Server) ServeRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	started := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, nil, codeInvalidRequest, "failed to read request body", err.Error())
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
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	result, status, rpcErr := handler(r, req)
	observability.ModuleMetrics().Observe(moduleOf(req.Method), req.Method, status, time.Since(started))
	if rpcErr != nil {
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}

func moduleOf(method string) string {
	for i := 0; i < len(method); i++ {
		if method[i] == '_' {
			return method[:i]
		}
	}
	return method
}

// ledgerError maps an engine error onto an HTTP status and JSON-RPC error.
func ledgerError(err error) (int, *RPCError) {
	kind := core.Kind(err)
	data := ErrorData{Kind: kind, Retryable: core.Retryable(err)}
	switch kind {
	case core.KindUnauthorized:
		return http.StatusForbidden, &RPCError{Code: codeUnauthorized, Message: err.Error(), Data: data}
	case core.KindNotFound, core.KindLinkdropNotFound:
		return http.StatusNotFound, &RPCError{Code: codeNotFound, Message: err.Error(), Data: data}
	case core.KindInvalidTerms, core.KindInvalidArgument:
		return http.StatusBadRequest, &RPCError{Code: codeInvalidParams, Message: err.Error(), Data: data}
	case core.KindModulePaused, core.KindBusy:
		return http.StatusServiceUnavailable, &RPCError{Code: codeUnavailable, Message: err.Error(), Data: data}
	case core.KindInternal:
		return http.StatusInternalServerError, &RPCError{Code: codeServerError, Message: "internal error", Data: data}
	default:
		return http.StatusUnprocessableEntity, &RPCError{Code: codeRejected, Message: err.Error(), Data: data}
	}
}

func invalidParams(format string, args ...interface{}) (interface{}, int, *RPCError) {
	return nil, http.StatusBadRequest, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}
