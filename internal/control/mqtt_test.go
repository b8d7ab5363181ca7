package control

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/rgbtree/internal/app"
	"github.com/coreman2200/rgbtree/internal/config"
)

// token completes at once, or when gate closes if one is set.
type token struct {
	err  error
	gate chan struct{}
}

func (t *token) Wait() bool {
	if t.gate != nil {
		<-t.gate
	}
	return true
}

func (t *token) WaitTimeout(d time.Duration) bool {
	if t.gate == nil {
		return true
	}
	select {
	case <-t.gate:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *token) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *token) Error() error { return t.err }

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 1 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 1 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              {}

// broker stands in for a connected client. Methods not overridden panic.
type broker struct {
	mqtt.Client

	mu        sync.Mutex
	subErr    error
	handler   mqtt.MessageHandler
	subTopic  string
	published []Response
	topics    []string
	unsub     []string
	unsubGate chan struct{}
	unsubbing chan struct{}
}

func (b *broker) IsConnected() bool { return true }

func (b *broker) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subTopic, b.handler = topic, cb
	return &token{err: b.subErr}
}

func (b *broker) Unsubscribe(topics ...string) mqtt.Token {
	b.mu.Lock()
	b.unsub = append(b.unsub, topics...)
	gate, unsubbing := b.unsubGate, b.unsubbing
	b.mu.Unlock()
	if unsubbing != nil {
		close(unsubbing)
	}
	return &token{gate: gate}
}

func (b *broker) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	var r Response
	_ = json.Unmarshal(payload.([]byte), &r)
	b.mu.Lock()
	b.topics = append(b.topics, topic)
	b.published = append(b.published, r)
	b.mu.Unlock()
	return &token{}
}

func (b *broker) send(payload string) {
	b.mu.Lock()
	cb, topic := b.handler, b.subTopic
	b.mu.Unlock()
	cb(b, &message{topic: topic, payload: []byte(payload)})
}

func (b *broker) replies() []Response {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Response(nil), b.published...)
}

type fakeCtl struct {
	mu  sync.Mutex
	cmd []app.Command
}

func (f *fakeCtl) Do(_ context.Context, cmd app.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cmd.Program == "rewind" {
		return errors.New(`unknown program action "rewind"`)
	}
	f.cmd = append(f.cmd, cmd)
	return nil
}

func (f *fakeCtl) Status() app.Status { return app.Status{Driver: "sim", Effect: "swirl"} }

func TestClientID(t *testing.T) {
	assert.Equal(t, "tree-1", ClientID(config.MQTT{ClientID: "tree-1"}))
	a, b := ClientID(config.MQTT{}), ClientID(config.MQTT{})
	assert.True(t, strings.HasPrefix(a, "rgbtree-"))
	assert.Len(t, a, len("rgbtree-")+36)
	assert.NotEqual(t, a, b)
}

func TestHandleCommands(t *testing.T) {
	ctl := &fakeCtl{}
	h := NewHandler(config.MQTT{TopicPrefix: "xmas"}, &broker{}, ctl)
	ctx := context.Background()

	r := h.handle(ctx, []byte(`{"effect":"spin","brightness":5}`))
	assert.True(t, r.OK)
	assert.Equal(t, "swirl", r.Status.Effect)
	require.Len(t, ctl.cmd, 1)
	assert.Equal(t, "spin", ctl.cmd[0].Effect)
	assert.Equal(t, 5, *ctl.cmd[0].Brightness)

	r = h.handle(ctx, []byte(`{"program":"rewind"}`))
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "rewind")

	r = h.handle(ctx, []byte(`not json`))
	assert.False(t, r.OK)
	assert.Equal(t, "unknown", r.Command)
	assert.Equal(t, "invalid JSON", r.Error)
}

func TestStartSubscribesAndPublishesReplies(t *testing.T) {
	b := &broker{}
	ctl := &fakeCtl{}
	h := NewHandler(config.MQTT{TopicPrefix: "xmas"}, b, ctl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, h.Start(ctx))
	assert.Equal(t, "xmas/set", b.subTopic)
	require.Len(t, b.replies(), 1)
	assert.Equal(t, "online", b.replies()[0].Command)

	b.send(`{"effect":"random"}`)
	require.Eventually(t, func() bool { return len(b.replies()) == 2 }, time.Second, 5*time.Millisecond)
	r := b.replies()[1]
	assert.True(t, r.OK)
	assert.NotEmpty(t, r.Timestamp)

	b.mu.Lock()
	assert.Equal(t, []string{"xmas/status", "xmas/status"}, b.topics)
	b.mu.Unlock()

	h.Stop()
	h.Stop()
	b.send(`{"effect":"off"}`)
	assert.Equal(t, []string{"xmas/set"}, b.unsub)
}

func TestStartSubscribeError(t *testing.T) {
	h := NewHandler(config.MQTT{TopicPrefix: "xmas"}, &broker{subErr: errors.New("not authorised")}, &fakeCtl{})
	err := h.Start(context.Background())
	assert.ErrorContains(t, err, "not authorised")
}

func TestStopDoesNotHoldUpDelivery(t *testing.T) {
	b := &broker{unsubGate: make(chan struct{}), unsubbing: make(chan struct{})}
	h := NewHandler(config.MQTT{TopicPrefix: "xmas"}, b, &fakeCtl{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Start(ctx))

	stopped := make(chan struct{})
	go func() {
		h.Stop()
		close(stopped)
	}()
	<-b.unsubbing

	delivered := make(chan struct{})
	go func() {
		b.send(`{"effect":"off"}`)
		close(delivered)
	}()
	select {
	case <-delivered:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("message delivery blocked while unsubscribing")
	}

	close(b.unsubGate)
	<-stopped
	assert.Len(t, b.replies(), 1, "nothing processed after stop")
}
