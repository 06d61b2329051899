package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcpguard/jsonapi-go/internal/wire"
)

// MethodFunc implements one remote method. args is the decoded JSON array
// from the request.
type MethodFunc func(args []interface{}) (interface{}, error)

type ServerConfig struct {
	Username string
	Password string
	Salt     string
	Logger   *slog.Logger
}

// Server is a stand-in for the JSONAPI plugin: it checks keys the same way
// and answers with the same envelopes.
type Server struct {
	config  ServerConfig
	methods sync.Map
	router  *mux.Router
}

func NewServer(config ServerConfig) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Server{config: config}

	s.router = mux.NewRouter()
	s.router.HandleFunc("/api/call", s.HandleCall).Methods("GET")
	s.router.HandleFunc("/api/call-multiple", s.HandleCallMultiple).Methods("GET")
	return s
}

// Register makes fn callable as method. Registering a name twice replaces
// the earlier function.
func (s *Server) Register(method string, fn MethodFunc) {
	s.methods.Store(method, fn)
}

// RegisterBuiltins adds the methods served by the serve command.
func (s *Server) RegisterBuiltins() {
	s.Register("ping", func([]interface{}) (interface{}, error) {
		return "pong", nil
	})
	s.Register("echo", func(args []interface{}) (interface{}, error) {
		return args, nil
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		s.config.Logger.Info("starting mock JSONAPI server", "addr", addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		s.config.Logger.Info("shutting down mock JSONAPI server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

func (s *Server) HandleCall(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	req, err := wire.ParseRequest(r.URL.Query())
	if err != nil {
		s.config.Logger.Warn("rejected call", "request_id", requestID, "error", err)
		s.writeJSON(w, http.StatusBadRequest, wire.Failure(req.Method, wire.MsgBadArguments))
		return
	}

	if !s.validKey(req.Method, req.Key) {
		s.config.Logger.Warn("invalid key", "request_id", requestID, "method", req.Method)
		s.writeJSON(w, http.StatusUnauthorized, wire.Failure(req.Method, wire.MsgInvalidKey))
		return
	}

	status, env := s.invoke(req.Method, req.Args)
	s.config.Logger.Info("call", "request_id", requestID, "method", req.Method, "result", env.Result)
	s.writeJSON(w, status, env)
}

func (s *Server) HandleCallMultiple(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	req, err := wire.ParseMultiRequest(r.URL.Query())
	if err != nil {
		s.config.Logger.Warn("rejected multi-call", "request_id", requestID, "error", err)
		s.writeJSON(w, http.StatusBadRequest, wire.Failure("", wire.MsgBadArguments))
		return
	}

	if len(req.Methods) == 0 || len(req.Methods) != len(req.Args) {
		s.writeJSON(w, http.StatusBadRequest, wire.Failure("", wire.MsgArityMismatch))
		return
	}

	// The batch key is derived from its first method.
	if !s.validKey(req.Methods[0], req.Key) {
		s.config.Logger.Warn("invalid key", "request_id", requestID, "method", req.Methods[0])
		s.writeJSON(w, http.StatusUnauthorized, wire.Failure(req.Methods[0], wire.MsgInvalidKey))
		return
	}

	results := make([]wire.Envelope, len(req.Methods))
	for i, method := range req.Methods {
		_, results[i] = s.invoke(method, req.Args[i])
	}
	s.config.Logger.Info("multi-call", "request_id", requestID, "methods", req.Methods)
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) invoke(method string, args []interface{}) (int, wire.Envelope) {
	fn, ok := s.methods.Load(method)
	if !ok {
		return http.StatusNotFound, wire.Failure(method, wire.MsgNoSuchMethod)
	}
	if args == nil {
		args = []interface{}{}
	}
	value, err := fn.(MethodFunc)(args)
	if err != nil {
		return http.StatusOK, wire.Failure(method, err.Error())
	}
	return http.StatusOK, wire.Success(method, value)
}

func (s *Server) validKey(method, key string) bool {
	sum := sha256.Sum256([]byte(s.config.Username + method + s.config.Password + s.config.Salt))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(want), []byte(key)) == 1
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.config.Logger.Error("failed to write response", "error", err)
	}
}
