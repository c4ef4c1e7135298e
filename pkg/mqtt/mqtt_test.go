package mqtt

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/goccy/go-json"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "mqtt-logs")
	l := logger.Init(logger.Options{Dir: dir, Console: io.Discard})
	code := m.Run()
	l.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *doneToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient records publishes instead of talking to a broker
type fakeClient struct {
	connected bool
	messages  []published
}

func (c *fakeClient) IsConnected() bool                                   { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool                              { return c.connected }
func (c *fakeClient) Connect() mqtt.Token                                 { c.connected = true; return &doneToken{} }
func (c *fakeClient) Disconnect(quiesce uint)                             { c.connected = false }
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader             { return mqtt.ClientOptionsReader{} }
func (c *fakeClient) AddRoute(topic string, callback mqtt.MessageHandler) {}
func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token             { return &doneToken{} }
func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return &doneToken{}
}
func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return &doneToken{}
}
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &doneToken{}
}

func TestEventTopic(t *testing.T) {
	tests := []struct {
		base, event, want string
	}{
		{"pancyledger", "warning.issued", "pancyledger/warning/issued"},
		{"pancyledger/", "ban.completed", "pancyledger/ban/completed"},
		{"a/b", "warnings.cleared", "a/b/warnings/cleared"},
	}

	for _, tt := range tests {
		if got := EventTopic(tt.base, tt.event); got != tt.want {
			t.Errorf("EventTopic(%q, %q) = %v, want %v", tt.base, tt.event, got, tt.want)
		}
	}
}

func TestNewEventHasUniqueIDs(t *testing.T) {
	a := NewEvent("license.added", nil)
	b := NewEvent("license.added", nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("event ids not unique: %q %q", a.ID, b.ID)
	}
}

func TestPublishEvent(t *testing.T) {
	client := &fakeClient{connected: true}
	mc := newWithClient(client, "ledger")

	err := mc.PublishEvent("warning.issued", map[string]interface{}{"id": "7", "points": 10})
	if err != nil {
		t.Fatalf("PublishEvent() error: %v", err)
	}

	if len(client.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(client.messages))
	}
	msg := client.messages[0]
	if msg.topic != "ledger/warning/issued" || msg.qos != 1 {
		t.Errorf("topic/qos = %v/%v", msg.topic, msg.qos)
	}

	var event struct {
		ID   string                 `json:"id"`
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(msg.payload, &event); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if event.Type != "warning.issued" || event.ID == "" || event.Data["id"] != "7" {
		t.Errorf("event = %+v", event)
	}
}

func TestPublishEventDisconnected(t *testing.T) {
	client := &fakeClient{}
	mc := newWithClient(client, "ledger")

	if err := mc.PublishEvent("warning.issued", nil); err == nil {
		t.Error("PublishEvent() should fail while disconnected")
	}
	if len(client.messages) != 0 {
		t.Error("nothing should be published while disconnected")
	}

	mc.Destroy()
}
