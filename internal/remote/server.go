package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"hoteval/internal/analysis"
	"hoteval/internal/binding"
	"hoteval/internal/parser"
)

// Server answers compile-check requests over WebSocket, grounded on the
// teacher's internal/network WebSocketServer/Upgrader wiring but trimmed to
// a single request/response handler instead of a generic pub/sub server.
type Server struct {
	addr       string
	upgrader   websocket.Upgrader
	httpServer *http.Server
	mu         sync.Mutex
}

// NewServer builds a Server listening on addr (host:port) once Serve is
// called.
func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve blocks, accepting WebSocket connections and answering each one's
// compile-check requests until the server is closed.
func (s *Server) Serve() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/compile", s.handleConn)

	s.mu.Lock()
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	s.mu.Unlock()

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close shuts the server down.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		resp := handleRequest(payload)

		encoded, err := json.Marshal(resp)
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
			return
		}
	}
}

func handleRequest(payload []byte) Response {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Error: fmt.Sprintf("remote: malformed request: %v", err)}
	}

	table := binding.New()
	if err := req.Table.Apply(table); err != nil {
		return Response{Error: errors.Wrap(err, "remote: applying table description").Error()}
	}

	root, err := parser.Parse(req.Source)
	if err != nil {
		return Response{Error: errors.Wrap(err, "remote: parsing source").Error()}
	}

	tree, err := analysis.FromAST(root, table)
	if err != nil {
		return Response{Error: errors.Wrap(err, "remote: analyzing expression").Error()}
	}

	resultType, err := tree.GetExprType()
	if err != nil {
		return Response{Error: errors.Wrap(err, "remote: resolving expression type").Error()}
	}

	return Response{Type: resultType.String()}
}
