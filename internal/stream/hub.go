package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"

	"cryptodash/pkg/selection"
)

const (
	// MessageHello is sent once right after a client connects.
	MessageHello = "hello"

	codecJSON    = "json"
	codecMsgpack = "msgpack"

	defaultSendBuffer   = 16
	defaultWriteTimeout = 5 * time.Second
	defaultPingInterval = 30 * time.Second
)

// Source is the view model the hub relays.
type Source interface {
	Subscribe(fn func(selection.Event)) (cancel func())
	View() selection.View
}

// Config holds hub configuration.
type Config struct {
	SendBuffer   int           // Per-client queue (default: 16)
	WriteTimeout time.Duration // Per-frame write deadline (default: 5s)
	PingInterval time.Duration // Keepalive ping period (default: 30s)
}

// Message is the frame pushed to clients.
type Message struct {
	Type     string `json:"type" msgpack:"type"`
	Seq      uint64 `json:"seq" msgpack:"seq"`
	Focus    string `json:"focus" msgpack:"focus"`
	ClientID string `json:"clientId,omitempty" msgpack:"clientId,omitempty"`
}

// Hub fans view model changes out to websocket clients. Clients that cannot
// keep up are dropped instead of blocking the dispatcher.
type Hub struct {
	cfg      Config
	source   Source
	upgrader websocket.Upgrader
	cancel   func()

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

// NewHub creates a hub subscribed to source.
func NewHub(cfg Config, source Source) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	h := &Hub{
		cfg:     cfg,
		source:  source,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if source != nil {
		h.cancel = source.Subscribe(h.relay)
	}
	return h
}

func (h *Hub) relay(e selection.Event) {
	h.Broadcast(Message{Type: string(e.Type), Seq: e.Seq, Focus: e.Focus})
}

// ServeHTTP upgrades the request and registers the client. ?codec=msgpack
// selects binary msgpack frames; JSON text frames otherwise.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	codec := codecJSON
	if r.URL.Query().Get("codec") == codecMsgpack {
		codec = codecMsgpack
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.WithContext(r.Context()).Errorf("stream: upgrade failed: %v", err)
		return
	}

	c := newClient(uuid.NewString(), codec, conn, h.cfg.SendBuffer)
	if !h.attach(c) {
		c.close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
	logx.Infof("stream: client %s connected (codec=%s)", c.id, codec)
}

// Broadcast encodes msg once per codec and queues it for every client.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	if len(clients) == 0 {
		return
	}

	frames := make(map[string][]byte, 2)
	for _, c := range clients {
		frame, ok := frames[c.codec]
		if !ok {
			var err error
			frame, err = encode(c.codec, msg)
			if err != nil {
				logx.Errorf("stream: encode %s frame: %v", c.codec, err)
				continue
			}
			frames[c.codec] = frame
		}
		if !c.enqueue(frame) {
			logx.Infof("stream: dropping slow client %s", c.id)
			h.unregister(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close unsubscribes from the source and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
	}
	for _, c := range clients {
		c.close()
	}
}

// attach queues the hello frame and then registers c, so no broadcast can
// reach the client ahead of its hello.
func (h *Hub) attach(c *client) bool {
	hello := Message{Type: MessageHello, ClientID: c.id}
	if h.source != nil {
		v := h.source.View()
		hello.Seq = v.Snapshot.Seq
		hello.Focus = v.Focus
	}
	frame, err := encode(c.codec, hello)
	if err != nil {
		logx.Errorf("stream: encode hello for %s: %v", c.id, err)
		return false
	}
	c.enqueue(frame)
	return h.register(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if existing, ok := h.clients[c.id]; ok && existing == c {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		h.unregister(c)
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(c.messageType(), frame); err != nil {
				logx.Infof("stream: write to %s failed: %v", c.id, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so control messages are processed and a
// closed connection is noticed.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func encode(codec string, msg Message) ([]byte, error) {
	if codec == codecMsgpack {
		return msgpack.Marshal(msg)
	}
	return json.Marshal(msg)
}

type client struct {
	id    string
	codec string
	conn  *websocket.Conn
	send  chan []byte

	once sync.Once
	done chan struct{}
}

func newClient(id, codec string, conn *websocket.Conn, buffer int) *client {
	return &client{
		id:    id,
		codec: codec,
		conn:  conn,
		send:  make(chan []byte, buffer),
		done:  make(chan struct{}),
	}
}

// enqueue reports false when the client's queue is full or it is closed.
func (c *client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *client) messageType() int {
	if c.codec == codecMsgpack {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
