// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

const writeTimeout = 2 * time.Second

// WebSocketOptions configures a WebSocketTransport.
type WebSocketOptions struct {
	// AllowedOrigins lists the Origin headers accepted on upgrade. Empty
	// allows all origins.
	AllowedOrigins []string
	// MinSendInterval drops values sent sooner than this after the previous
	// accepted one. Zero disables rate limiting.
	MinSendInterval time.Duration
	// QueueSize bounds the broadcast queue; values are dropped when it is
	// full. Defaults to 256.
	QueueSize int
}

// WebSocketTransport broadcasts every value as JSON to all connected
// WebSocket clients. It is an http.Handler and is mounted on whatever
// server the caller runs; Listen starts a dedicated one.
//
// Thread Safety:
// - Uses mutex for client map access
// - A single goroutine writes to clients, so Send never blocks on the network
// - Values are dropped, not queued without bound, when clients are slow
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	done      chan struct{}
	wg        sync.WaitGroup

	minInterval time.Duration
	sendMu      sync.Mutex // Protects lastSend and closed.
	lastSend    time.Time
	closed      bool

	server *http.Server
}

// NewWebSocketTransport creates a WebSocketTransport and starts its
// broadcast goroutine.
func NewWebSocketTransport(opts WebSocketOptions) *WebSocketTransport {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(opts.AllowedOrigins),
		},
		clients:     make(map[*websocket.Conn]bool),
		broadcast:   make(chan any, opts.QueueSize),
		done:        make(chan struct{}),
		minInterval: opts.MinSendInterval,
	}
	wst.wg.Add(1)
	go wst.handleBroadcasts()
	return wst
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Listen serves the transport at /ws on addr until Close.
func (wst *WebSocketTransport) Listen(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/ws", wst)
	wst.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Infof("WebSocket server listening on %s", addr)
		if err := wst.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("WebSocket server error: %v", err)
		}
	}()
}

// ServeHTTP upgrades the connection and registers the client.
func (wst *WebSocketTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	if wst.isClosed() {
		wst.clientsMu.Unlock()
		conn.Close()
		return
	}
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	logger.Infof("client connected from %s, total: %d", r.RemoteAddr, total)

	// Clients only listen; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	if ok {
		conn.Close()
		logger.Infof("client disconnected, total: %d", total)
	}
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleBroadcasts sends queued values to all connected clients.
func (wst *WebSocketTransport) handleBroadcasts() {
	defer wst.wg.Done()
	for {
		select {
		case <-wst.done:
			return
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteJSON(data); err != nil {
					logger.Warnf("error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		}
	}
}

// Send queues data for broadcast. It drops the value when the queue is
// full or the rate limit has not elapsed.
func (wst *WebSocketTransport) Send(data any) error {
	wst.sendMu.Lock()
	defer wst.sendMu.Unlock()
	if wst.closed {
		return ErrClosed
	}
	now := time.Now()
	if wst.minInterval > 0 && now.Sub(wst.lastSend) < wst.minInterval {
		return nil
	}
	select {
	case wst.broadcast <- data:
		wst.lastSend = now
	default:
		// Channel full, drop message
	}
	return nil
}

func (wst *WebSocketTransport) isClosed() bool {
	wst.sendMu.Lock()
	defer wst.sendMu.Unlock()
	return wst.closed
}

// Close stops broadcasting, disconnects every client and shuts down the
// server started by Listen, if any.
func (wst *WebSocketTransport) Close() error {
	wst.sendMu.Lock()
	if wst.closed {
		wst.sendMu.Unlock()
		return nil
	}
	wst.closed = true
	wst.sendMu.Unlock()

	close(wst.done)
	wst.wg.Wait()

	wst.clientsMu.Lock()
	for client := range wst.clients {
		client.Close()
	}
	wst.clients = make(map[*websocket.Conn]bool)
	wst.clientsMu.Unlock()

	if wst.server != nil {
		return wst.server.Close()
	}
	return nil
}

// Ensure WebSocketTransport satisfies the interfaces
var (
	_ Transport    = (*WebSocketTransport)(nil)
	_ http.Handler = (*WebSocketTransport)(nil)
)
