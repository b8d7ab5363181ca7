// Package preview streams committed frames to browsers over websockets and accepts
// control messages from them.
package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/rgbtree/internal/app"
	"github.com/coreman2200/rgbtree/internal/diagnostics"
	"github.com/coreman2200/rgbtree/internal/layout"
	"github.com/coreman2200/rgbtree/internal/tree"
)

const (
	writeWait = 200 * time.Millisecond
	queueLen  = 32
)

// Controller is what the hub needs from the conductor.
type Controller interface {
	Do(ctx context.Context, cmd app.Command) error
	Status() app.Status
}

// Hub fans frames and diagnostics out to websocket clients. Publishing only queues
// the message; a single writer goroutine does the socket writes, so a slow browser
// never holds up the conductor.
type Hub struct {
	ctl      Controller
	upgrader websocket.Upgrader

	out     chan outMsg
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	frameID atomic.Uint64
	dropped atomic.Uint64

	mu          sync.Mutex
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	startTime   time.Time
}

type outMsg struct {
	diag bool
	data []byte
}

func NewHub(ctl Controller) *Hub {
	h := &Hub{
		ctl:         ctl,
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		out:         make(chan outMsg, queueLen),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		startTime:   time.Now(),
	}
	go h.writer()
	return h
}

// Close stops the writer. Messages published afterwards are dropped.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.quit) })
	<-h.done
}

type topology struct {
	Type      string        `json:"type"`
	Count     int           `json:"count"`
	Layers    int           `json:"layers"`
	Segments  int           `json:"segments"`
	Star      int           `json:"star"`
	Positions []layout.Vec3 `json:"positions"`
	Driver    string        `json:"driver"`
}

type frameMsg struct {
	Type    string       `json:"type"`
	T       int64        `json:"t"`
	FrameID uint64       `json:"frame_id"`
	Pixels  []tree.Pixel `json:"pixels"`
}

type controlReply struct {
	OK     bool       `json:"ok"`
	Error  string     `json:"error,omitempty"`
	Status app.Status `json:"status"`
}

// Routes serves /ws, /diag, /control and /health.
func (h *Hub) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/diag", h.HandleDiagWS)
	mux.HandleFunc("/control", h.HandleControlWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return withCORS(mux)
}

// PublishFrame decodes a committed wire frame and queues it for every viewer. It is
// meant to be subscribed to the driver tap and never blocks.
func (h *Hub) PublishFrame(frame []byte) {
	px, err := tree.DecodeFrame(frame)
	if err != nil {
		log.Debug().Err(err).Msg("preview decode")
		return
	}
	id := h.frameID.Add(1)
	b, _ := json.Marshal(frameMsg{Type: "frame", T: time.Now().UnixNano(), FrameID: id, Pixels: px[:]})
	h.enqueue(outMsg{data: b})
}

// PushDiag queues d for every /diag client. It never blocks.
func (h *Hub) PushDiag(d diagnostics.Diagnostic) {
	b, _ := json.Marshal(d)
	h.enqueue(outMsg{diag: true, data: b})
}

// Dropped counts messages discarded because the writer fell behind.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) enqueue(m outMsg) {
	select {
	case h.out <- m:
	default:
		if n := h.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Debug().Uint64("dropped", n).Msg("preview queue full")
		}
	}
}

func (h *Hub) writer() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			return
		case m := <-h.out:
			for _, c := range h.targets(m.diag) {
				c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteMessage(websocket.TextMessage, m.data); err != nil {
					log.Debug().Err(err).Bool("diag", m.diag).Msg("preview write")
				}
			}
		}
	}
}

func (h *Hub) targets(diag bool) []*websocket.Conn {
	set := h.clients
	if diag {
		set = h.diagClients
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

// Clients is the number of connected frame viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if err := h.sendTopology(conn); err != nil {
		conn.Close()
		return
	}
	h.track(conn, h.clients)
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.track(conn, h.diagClients)
}

// track registers conn in set and drops it once the peer goes away.
func (h *Hub) track(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	h.mu.Lock()
	set[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(set, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		reply := h.control(r.Context(), data)
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (h *Hub) control(ctx context.Context, data []byte) controlReply {
	var cmd app.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return controlReply{Error: "invalid JSON: " + err.Error(), Status: h.ctl.Status()}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.ctl.Do(ctx, cmd); err != nil {
		log.Warn().Err(err).Stringer("cmd", cmd).Msg("preview control")
		return controlReply{Error: err.Error(), Status: h.ctl.Status()}
	}
	return controlReply{OK: true, Status: h.ctl.Status()}
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := map[string]any{
		"frame_id": h.frameID.Load(),
		"uptime_s": time.Since(h.startTime).Seconds(),
		"clients":  len(h.clients),
		"count":    layout.Count,
	}
	h.mu.Unlock()
	resp["status"] = h.ctl.Status()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Hub) sendTopology(conn *websocket.Conn) error {
	top := topology{
		Type:      "topology",
		Count:     layout.Count,
		Layers:    layout.Layers,
		Segments:  layout.Segments,
		Star:      layout.Star,
		Positions: layout.Positions(),
		Driver:    h.ctl.Status().Driver,
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(top)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
