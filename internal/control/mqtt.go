// Package control lets the tree be driven remotely over MQTT.
//
// Commands arrive as JSON on <prefix>/set, the same shape the preview's /control
// socket takes. After each one the conductor status is published, retained, on
// <prefix>/status.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/rgbtree/internal/app"
	"github.com/coreman2200/rgbtree/internal/config"
)

// Controller is what the handler needs from the conductor.
type Controller interface {
	Do(ctx context.Context, cmd app.Command) error
	Status() app.Status
}

// Response is published on the status topic.
type Response struct {
	Command   string     `json:"command"`
	OK        bool       `json:"ok"`
	Error     string     `json:"error,omitempty"`
	Status    app.Status `json:"status"`
	Timestamp string     `json:"timestamp"`
}

// ClientID returns the configured id or a fresh rgbtree-<uuid>.
func ClientID(cfg config.MQTT) string {
	if cfg.ClientID != "" {
		return cfg.ClientID
	}
	return "rgbtree-" + uuid.NewString()
}

// Connect dials the broker with automatic reconnects.
func Connect(cfg config.MQTT) (mqtt.Client, error) {
	id := ClientID(cfg)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(id)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Str("client_id", id).Msg("mqtt connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.Broker).Msg("mqtt connection lost, reconnecting")
	}

	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return c, nil
}

type Handler struct {
	client mqtt.Client
	ctl    Controller
	set    string
	status string

	mu       sync.Mutex
	commands chan []byte
	stopped  bool
}

func NewHandler(cfg config.MQTT, client mqtt.Client, ctl Controller) *Handler {
	return &Handler{
		client:   client,
		ctl:      ctl,
		set:      cfg.TopicPrefix + "/set",
		status:   cfg.TopicPrefix + "/status",
		commands: make(chan []byte, 10),
	}
}

// Start subscribes to the command topic and processes commands until ctx ends.
func (h *Handler) Start(ctx context.Context) error {
	tok := h.client.Subscribe(h.set, 1, h.messageHandler)
	if !tok.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe %s: timeout", h.set)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", h.set, err)
	}
	log.Info().Str("topic", h.set).Msg("mqtt control listening")

	go h.process(ctx)
	h.publish(Response{Command: "online", OK: true, Status: h.ctl.Status()})
	return nil
}

// Stop unsubscribes and ends command processing.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	close(h.commands)
	h.mu.Unlock()

	// messageHandler takes h.mu on paho's router goroutine; do not wait while holding it.
	if h.client.IsConnected() {
		h.client.Unsubscribe(h.set).WaitTimeout(2 * time.Second)
	}
}

func (h *Handler) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	select {
	case h.commands <- msg.Payload():
	default:
		log.Warn().Str("topic", msg.Topic()).Msg("command queue full, dropping command")
	}
}

func (h *Handler) process(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-h.commands:
			if !ok {
				return
			}
			h.publish(h.handle(ctx, payload))
		}
	}
}

// handle applies one raw command and builds the reply.
func (h *Handler) handle(ctx context.Context, payload []byte) Response {
	var cmd app.Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		log.Warn().Err(err).Msg("invalid control command")
		return Response{Command: "unknown", Error: "invalid JSON", Status: h.ctl.Status()}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	resp := Response{Command: cmd.String()}
	if err := h.ctl.Do(ctx, cmd); err != nil {
		log.Warn().Err(err).Stringer("cmd", cmd).Msg("mqtt command rejected")
		resp.Error = err.Error()
	} else {
		log.Info().Stringer("cmd", cmd).Msg("mqtt command")
		resp.OK = true
	}
	resp.Status = h.ctl.Status()
	return resp
}

func (h *Handler) publish(r Response) {
	r.Timestamp = time.Now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(r)
	if err != nil {
		log.Error().Err(err).Msg("marshal status")
		return
	}
	tok := h.client.Publish(h.status, 1, true, b)
	if !tok.WaitTimeout(2 * time.Second) {
		log.Warn().Str("topic", h.status).Msg("status publish timeout")
		return
	}
	if err := tok.Error(); err != nil {
		log.Warn().Err(err).Str("topic", h.status).Msg("status publish")
	}
}
