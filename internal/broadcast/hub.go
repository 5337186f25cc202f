package broadcast

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/model"
)

// Event names on the socket.
const (
	EventSignalUpdate  = "signal-update"
	EventSignalsUpdate = "signals-update"
	EventSignalWaiting = "signal-waiting"
	EventSignalError   = "signal-error"
	EventRequestSignal = "request-signal"

	waitingMessage      = "Signal will be available on next update cycle"
	requestErrorMessage = "Error generating signal"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxInbound = 4096
)

// Event is the envelope of every socket message.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Notice is the payload of signal-waiting and signal-error.
type Notice struct {
	Pair    string `json:"pair"`
	Message string `json:"message"`
}

// inbound is a client message. Data is the pair, either as a bare string or {"pair": ...}.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (m inbound) pair() string {
	var s string
	if err := json.Unmarshal(m.Data, &s); err == nil {
		return strings.ToUpper(strings.TrimSpace(s))
	}
	var obj struct {
		Pair string `json:"pair"`
	}
	if err := json.Unmarshal(m.Data, &obj); err == nil {
		return strings.ToUpper(strings.TrimSpace(obj.Pair))
	}
	return ""
}

// SignalReader is the read side of the signal store.
type SignalReader interface {
	Get(pair string) (model.Signal, bool)
	Snapshot() []model.Signal
}

type HubConfig struct {
	ClientBuffer int
	// CheckOrigin defaults to allowing every origin.
	CheckOrigin func(r *http.Request) bool
}

type client struct {
	id   string
	send chan []byte
}

type request struct {
	c    *client
	pair string
}

type direct struct {
	c       *client
	payload []byte
}

// Hub owns the set of socket clients. A single goroutine started by Run
// manages that set; everything else talks to it through channels. A client
// whose buffer is full loses its oldest pending message.
type Hub struct {
	store      SignalReader
	bufferSize int
	upgrader   websocket.Upgrader
	log        zerolog.Logger

	clients    map[string]*client
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	requests   chan request
	directs    chan direct

	done    chan struct{}
	started atomic.Bool
	count   atomic.Int64
	dropped atomic.Int64
}

func NewHub(store SignalReader, cfg HubConfig, log zerolog.Logger) *Hub {
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = 64
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		store:      store,
		bufferSize: cfg.ClientBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log:        log.With().Str("component", "hub").Logger(),
		clients:    make(map[string]*client),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		broadcast:  make(chan []byte, 64),
		requests:   make(chan request, 64),
		directs:    make(chan direct, 64),
		done:       make(chan struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int { return int(h.count.Load()) }

// Running reports whether Run is processing events.
func (h *Hub) Running() bool {
	if !h.started.Load() {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Dropped returns how many messages slow clients have lost.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Run processes hub events until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return errors.New("hub already running")
	}
	defer func() {
		close(h.done)
		for id, c := range h.clients {
			close(c.send)
			delete(h.clients, id)
		}
		h.count.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("hub stopped")
			return nil
		case c := <-h.register:
			h.clients[c.id] = c
			h.count.Store(int64(len(h.clients)))
			h.deliver(c, h.encode(EventSignalsUpdate, h.snapshot()))
		case c := <-h.unregister:
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
				h.count.Store(int64(len(h.clients)))
			}
		case msg := <-h.broadcast:
			for _, c := range h.clients {
				h.deliver(c, msg)
			}
		case r := <-h.requests:
			if _, ok := h.clients[r.c.id]; ok {
				h.deliver(r.c, h.answer(r.pair))
			}
		case d := <-h.directs:
			if _, ok := h.clients[d.c.id]; ok {
				h.deliver(d.c, d.payload)
			}
		}
	}
}

func (h *Hub) snapshot() []model.Signal {
	if h.store == nil {
		return []model.Signal{}
	}
	return h.store.Snapshot()
}

// answer re-emits a held signal or tells the client to wait for the next cycle.
// It never triggers generation.
func (h *Hub) answer(pair string) []byte {
	if pair == "" {
		return h.encode(EventSignalError, Notice{Pair: pair, Message: requestErrorMessage})
	}
	if h.store != nil {
		if sig, ok := h.store.Get(pair); ok {
			return h.encode(EventSignalUpdate, sig)
		}
	}
	return h.encode(EventSignalWaiting, Notice{Pair: pair, Message: waitingMessage})
}

// deliver enqueues msg, dropping the client's oldest message when full.
// Only the Run goroutine sends on client channels.
func (h *Hub) deliver(c *client, msg []byte) {
	if msg == nil {
		return
	}
	select {
	case c.send <- msg:
		return
	default:
	}
	h.dropped.Add(1)
	h.log.Debug().Str("client", c.id).Msg("client too slow, dropping oldest message")
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) encode(event string, data any) []byte {
	b, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode event")
		return nil
	}
	return b
}

// Publish broadcasts a signal-update to every client.
func (h *Hub) Publish(ctx context.Context, sig model.Signal) error {
	msg := h.encode(EventSignalUpdate, sig)
	if msg == nil {
		return errors.New("encode signal-update")
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return errors.New("hub stopped")
	}
}

// enqueue hands v to the Run goroutine unless the hub has stopped.
func enqueue[T any](h *Hub, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.done:
		return false
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.Running() {
		http.Error(w, "hub not running", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{id: uuid.NewString(), send: make(chan []byte, h.bufferSize)}
	h.log.Info().Str("client", c.id).Str("remote", r.RemoteAddr).Msg("client connected")
	if !enqueue(h, h.register, c) {
		_ = conn.Close()
		return
	}

	go h.writePump(conn, c)
	h.readPump(conn, c)
}

func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		enqueue(h, h.unregister, c)
		_ = conn.Close()
		h.log.Info().Str("client", c.id).Msg("client disconnected")
	}()

	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Str("client", c.id).Msg("read failed")
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil || msg.Event != EventRequestSignal {
			if !enqueue(h, h.directs, direct{c: c, payload: h.encode(EventSignalError, Notice{Message: requestErrorMessage})}) {
				return
			}
			continue
		}
		if !enqueue(h, h.requests, request{c: c, pair: msg.pair()}) {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
