// Package rpc exposes the treasury engine's full instruction surface
// (spec.md §6) as JSON-RPC over HTTP, and streams the event log over a
// websocket endpoint. Grounded in chain/node/rpc.go's JSONRPCRequest/
// JSONRPCResponse/RPCError types, its token-bucket RateLimiter, and its
// `methods map[string]func(json.RawMessage) (interface{}, error)`
// registration pattern.
package rpc

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SaitamaCoderVN/d2d-program/treasury/engine"
	"github.com/SaitamaCoderVN/d2d-program/treasury/events"
	"github.com/SaitamaCoderVN/d2d-program/treasury/monitoring"
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// JSONRPCRequest is a single JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// JSONRPCResponse is a single JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object, mapped from the engine's typed
// ErrorKind (spec.md §7) so callers can branch on Code instead of
// string-matching Message.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RateLimiter is a simple per-process token bucket, grounded in
// chain/node/rpc.go's RateLimiter, refilled on a fixed interval rather than
// per caller (the treasury node is not expected to serve many distinct
// callers the way a public chain RPC endpoint does).
type RateLimiter struct {
	mu       sync.Mutex
	tokens   int
	max      int
	interval time.Duration
	last     time.Time
}

// NewRateLimiter builds a limiter allowing up to max requests per interval.
func NewRateLimiter(max int, interval time.Duration) *RateLimiter {
	return &RateLimiter{tokens: max, max: max, interval: interval, last: time.Now()}
}

// Allow reports whether a request may proceed, refilling tokens lazily
// based on elapsed time.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.last)
	if elapsed >= r.interval {
		r.tokens = r.max
		r.last = now
	}
	if r.tokens <= 0 {
		return false
	}
	r.tokens--
	return true
}

// Server serves the JSON-RPC instruction surface and the event-log
// websocket feed.
type Server struct {
	engine  *engine.Engine
	sink    *events.Sink
	metrics *monitoring.Metrics
	limiter *RateLimiter

	methods   map[string]func(json.RawMessage) (interface{}, error)
	upgrader  websocket.Upgrader
	mux       *http.ServeMux
	srv       *http.Server
}

// NewServer builds an RPC server bound to addr, wired to eng, sink and
// metrics.
func NewServer(addr string, eng *engine.Engine, sink *events.Sink, metrics *monitoring.Metrics, ratePerMinute int) *Server {
	s := &Server{
		engine:   eng,
		sink:     sink,
		metrics:  metrics,
		limiter:  NewRateLimiter(ratePerMinute, time.Minute),
		methods:  make(map[string]func(json.RawMessage) (interface{}, error)),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	s.registerMethods()

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux = mux
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		writeError(w, req.ID, -32601, "method not found: "+req.Method)
		return
	}

	result, err := handler(req.Params)
	s.metrics.ObserveInstruction(req.Method, err)
	if err != nil {
		writeError(w, req.ID, errorCode(err), err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := events.SubscriberFunc(func(ev events.Event) {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	})
	s.sink.Subscribe(sub)

	for _, ev := range s.sink.Since(0) {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}

	// Block until the client disconnects; the treasury node has no
	// bidirectional websocket protocol, only server-push.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}

// errorCode maps an engine ErrorKind to a stable JSON-RPC error code in the
// -32000 to -32099 "server error" reserved range, the way chain/node/rpc.go
// maps validator/consensus errors to fixed negative codes.
func errorCode(err error) int {
	return -32000 - int(types.KindOf(err))
}
