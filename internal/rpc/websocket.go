// Package rpc streams the host outbox to relayers over WebSocket.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LeJamon/goScalingd/internal/host"
)

const (
	readLimit    = 64 * 1024
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
	defaultBatch = 100
)

// OutboxSource lists emitted instructions. *host.Host and *grpc.Client
// implement it.
type OutboxSource interface {
	Outbox(ctx context.Context, from uint64, limit int) ([]host.OutboxEntry, error)
}

// Command is a message from a subscriber.
type Command struct {
	ID      interface{} `json:"id,omitempty"`
	Command string      `json:"command"`
	From    uint64      `json:"from,omitempty"`
}

// Message is what the server writes: a response to a Command, or an
// outbox entry for an active subscription.
type Message struct {
	Type   string            `json:"type"`
	ID     interface{}       `json:"id,omitempty"`
	Status string            `json:"status,omitempty"`
	Error  string            `json:"error,omitempty"`
	Entry  *host.OutboxEntry `json:"entry,omitempty"`
}

const (
	TypeResponse = "response"
	TypeOutbox   = "outbox"
)

// WebSocketServer follows the outbox for each subscribed connection.
type WebSocketServer struct {
	upgrader websocket.Upgrader
	source   OutboxSource
	poll     time.Duration
	batch    int
	log      *zap.Logger

	connections      map[string]*WebSocketConnection
	connectionsMutex sync.Mutex
	nextID           atomic.Uint64
	wg               sync.WaitGroup
}

// WebSocketConnection is one subscriber.
type WebSocketConnection struct {
	ID          string
	conn        *websocket.Conn
	sendChannel chan Message
	ctx         context.Context
	cancel      context.CancelFunc

	mu       sync.Mutex
	unfollow context.CancelFunc
}

// NewWebSocketServer polls source every poll interval for new entries.
func NewWebSocketServer(source OutboxSource, poll time.Duration, log *zap.Logger) *WebSocketServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			// Relayers are not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		source:      source,
		poll:        poll,
		batch:       defaultBatch,
		log:         log.Named("outbox-ws"),
		connections: make(map[string]*WebSocketConnection),
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.log.Debug("upgrade failed", zap.Error(err))
		return
	}

	// Hijacked connections outlive the request context.
	ctx, cancel := context.WithCancel(context.Background())
	c := &WebSocketConnection{
		ID:          strconv.FormatUint(ws.nextID.Add(1), 10),
		conn:        conn,
		sendChannel: make(chan Message, sendBuffer),
		ctx:         ctx,
		cancel:      cancel,
	}

	ws.connectionsMutex.Lock()
	ws.connections[c.ID] = c
	ws.connectionsMutex.Unlock()
	ws.log.Debug("subscriber connected", zap.String("conn", c.ID), zap.String("remote", r.RemoteAddr))

	ws.wg.Add(2)
	go ws.handleConnection(c)
	go ws.handleSend(c)
}

// handleConnection reads commands until the peer goes away.
func (ws *WebSocketServer) handleConnection(c *WebSocketConnection) {
	defer ws.wg.Done()
	defer ws.closeConnection(c)

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Debug("read failed", zap.String("conn", c.ID), zap.Error(err))
			}
			return
		}
		ws.handleMessage(c, raw)
	}
}

// handleSend is the only writer on the connection.
func (ws *WebSocketServer) handleSend(c *WebSocketConnection) {
	defer ws.wg.Done()
	defer c.conn.Close()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		case msg := <-c.sendChannel:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				ws.log.Debug("write failed", zap.String("conn", c.ID), zap.Error(err))
				c.cancel()
				return
			}
		}
	}
}

func (ws *WebSocketServer) handleMessage(c *WebSocketConnection, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.send(Message{Type: TypeResponse, Status: "error", Error: "invalidJSON"})
		return
	}

	switch cmd.Command {
	case "subscribe":
		// The old stream stops before the ack and the new one starts after
		// it, so entries after the ack all belong to this subscription.
		c.stopFollowing()
		c.send(Message{Type: TypeResponse, ID: cmd.ID, Status: "success"})
		ws.follow(c, cmd.From)
		return
	case "unsubscribe":
		c.stopFollowing()
	case "ping":
	case "":
		c.send(Message{Type: TypeResponse, ID: cmd.ID, Status: "error", Error: "missingCommand"})
		return
	default:
		c.send(Message{Type: TypeResponse, ID: cmd.ID, Status: "error", Error: "unknownCmd"})
		return
	}
	c.send(Message{Type: TypeResponse, ID: cmd.ID, Status: "success"})
}

// follow replaces any running subscription with one starting at from.
func (ws *WebSocketServer) follow(c *WebSocketConnection, from uint64) {
	c.stopFollowing()
	ctx, cancel := context.WithCancel(c.ctx)
	c.mu.Lock()
	c.unfollow = cancel
	c.mu.Unlock()

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		ws.stream(ctx, c, from)
	}()
}

// stream sends every entry with sequence >= next as it appears.
func (ws *WebSocketServer) stream(ctx context.Context, c *WebSocketConnection, next uint64) {
	ticker := time.NewTicker(ws.poll)
	defer ticker.Stop()

	for ctx.Err() == nil {
		entries, err := ws.source.Outbox(ctx, next, ws.batch)
		if err != nil {
			if ctx.Err() == nil {
				ws.log.Warn("outbox read failed", zap.String("conn", c.ID), zap.Error(err))
				c.deliver(ctx, Message{Type: TypeResponse, Status: "error", Error: "outboxUnavailable"})
			}
			return
		}
		for i := range entries {
			entry := entries[i]
			if !c.deliver(ctx, Message{Type: TypeOutbox, Entry: &entry}) {
				return
			}
			next = entry.Sequence + 1
		}
		if len(entries) == ws.batch {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *WebSocketConnection) stopFollowing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unfollow != nil {
		c.unfollow()
		c.unfollow = nil
	}
}

// deliver queues msg for the subscription behind ctx. It holds mu, as
// stopFollowing does, so once stopFollowing returns the canceled stream
// can queue nothing more.
func (c *WebSocketConnection) deliver(ctx context.Context, msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	select {
	case c.sendChannel <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// send queues msg unless the connection is closing.
func (c *WebSocketConnection) send(msg Message) {
	select {
	case c.sendChannel <- msg:
	case <-c.ctx.Done():
	}
}

func (ws *WebSocketServer) closeConnection(c *WebSocketConnection) {
	c.cancel()
	ws.connectionsMutex.Lock()
	delete(ws.connections, c.ID)
	ws.connectionsMutex.Unlock()
	ws.log.Debug("subscriber disconnected", zap.String("conn", c.ID))
}

// ConnectionCount returns the number of open subscribers.
func (ws *WebSocketServer) ConnectionCount() int {
	ws.connectionsMutex.Lock()
	defer ws.connectionsMutex.Unlock()
	return len(ws.connections)
}

// Close disconnects every subscriber and waits for their goroutines.
func (ws *WebSocketServer) Close() {
	ws.connectionsMutex.Lock()
	for _, c := range ws.connections {
		c.cancel()
		_ = c.conn.SetReadDeadline(time.Now())
	}
	ws.connectionsMutex.Unlock()
	ws.wg.Wait()
}

// Serve answers upgrades on /outbox until ctx is done.
func (ws *WebSocketServer) Serve(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/outbox", ws)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()
	ws.log.Info("outbox stream listening", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-errCh:
		ws.Close()
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	ws.Close()
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}

// Start listens on addr and serves until ctx is done.
func (ws *WebSocketServer) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ws.Serve(ctx, listener)
}
