// Package mqtt publishes ledger mutation events to an MQTT broker so other
// services (dashboards, audit sinks) can follow moderation activity.
package mqtt

import (
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Event is the envelope published for every ledger mutation
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventTopic maps "warning.issued" under base to "base/warning/issued"
func EventTopic(base, eventType string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.ReplaceAll(eventType, ".", "/")
}

// MqttCommunicator handles MQTT communication
type MqttCommunicator struct {
	client    mqtt.Client
	baseTopic string
	qos       byte
	timeout   time.Duration
}

// NewMqttCommunicator connects to the broker. Connection failures are
// logged; paho keeps retrying in the background.
func NewMqttCommunicator(host, port, username, password, clientID, baseTopic string) *MqttCommunicator {
	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", clientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc := newWithClient(mqtt.NewClient(opts), baseTopic)

	token := mc.client.Connect()
	if token.WaitTimeout(mc.timeout) && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}

	return mc
}

func newWithClient(client mqtt.Client, baseTopic string) *MqttCommunicator {
	return &MqttCommunicator{
		client:    client,
		baseTopic: baseTopic,
		qos:       1,
		timeout:   5 * time.Second,
	}
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.client != nil && mc.client.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
	} else {
		logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc.client != nil && mc.client.IsConnected()
}

// Publish sends a JSON payload to a topic
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, mc.qos, false, jsonData)
	if !token.WaitTimeout(mc.timeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// PublishEvent publishes a ledger event under the base topic
func (mc *MqttCommunicator) PublishEvent(eventType string, data interface{}) error {
	if !mc.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	return mc.Publish(EventTopic(mc.baseTopic, eventType), NewEvent(eventType, data))
}
