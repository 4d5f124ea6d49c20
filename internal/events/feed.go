package events

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WorkspaceFunc resolves the workspace of an authenticated request.
type WorkspaceFunc func(r *http.Request) (string, bool)

// Feed streams change notifications to open browser tabs over websockets.
type Feed struct {
	upgrader  websocket.Upgrader
	workspace WorkspaceFunc
	logger    *slog.Logger

	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]struct{}
}

// NewFeed builds a Feed. An empty origin list or "*" accepts any origin.
func NewFeed(workspace WorkspaceFunc, allowedOrigins []string, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	_, anyOrigin := allowed["*"]
	return &Feed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if anyOrigin || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
		workspace: workspace,
		logger:    logger,
		clients:   make(map[string]map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and holds the connection until the client leaves.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, ok := f.workspace(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("events: websocket upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	f.mu.Lock()
	if f.clients[ws] == nil {
		f.clients[ws] = make(map[*websocket.Conn]struct{})
	}
	f.clients[ws][conn] = struct{}{}
	f.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			f.drop(ws, conn)
			return
		}
	}
}

// Broadcast writes v to every connection of workspace, dropping broken ones.
func (f *Feed) Broadcast(workspace string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients[workspace] {
		if err := conn.WriteJSON(v); err != nil {
			_ = conn.Close()
			delete(f.clients[workspace], conn)
		}
	}
	if len(f.clients[workspace]) == 0 {
		delete(f.clients, workspace)
	}
}

// Clients counts open connections for workspace.
func (f *Feed) Clients(workspace string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients[workspace])
}

func (f *Feed) drop(workspace string, conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients[workspace], conn)
	if len(f.clients[workspace]) == 0 {
		delete(f.clients, workspace)
	}
}
