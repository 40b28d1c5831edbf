// Package alert is the alerting collaborator: it is told about
// connectivity transitions and scheduled restarts, and pushes them out
// over MQTT for dashboards and on-site tooling. Delivery is best-effort;
// the fleet state in PostgreSQL is authoritative either way.
package alert

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Notifier receives fleet liveness transitions and restart requests.
type Notifier interface {
	DeviceOnline(uuid string, name *string)
	DeviceOffline(uuid string, name *string, gap time.Duration)
	RestartRequested(uuid string)
}

type message struct {
	Event      string `json:"event"`
	DeviceUUID string `json:"device_uuid"`
	DeviceName string `json:"device_name,omitempty"`
	GapSeconds int    `json:"gap_seconds,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// MQTTNotifier publishes alerts to per-device topics:
// fleet/<uuid>/events for transitions, fleet/<uuid>/commands for nudges.
type MQTTNotifier struct {
	client mqtt.Client
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// NewMQTTNotifier connects to the broker and returns the notifier.
func NewMQTTNotifier(brokerURL, clientID string) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}
	return &MQTTNotifier{client: client}, nil
}

func (n *MQTTNotifier) publish(topic string, msg message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	token := n.client.Publish(topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		log.Warn().Err(token.Error()).Str("topic", topic).Msg("failed to publish alert")
	}
}

func (n *MQTTNotifier) DeviceOnline(uuid string, name *string) {
	msg := message{Event: "online", DeviceUUID: uuid, Timestamp: time.Now().Format(time.RFC3339)}
	if name != nil {
		msg.DeviceName = *name
	}
	n.publish(fmt.Sprintf("fleet/%s/events", uuid), msg)
}

func (n *MQTTNotifier) DeviceOffline(uuid string, name *string, gap time.Duration) {
	msg := message{
		Event:      "offline",
		DeviceUUID: uuid,
		GapSeconds: int(gap.Seconds()),
		Timestamp:  time.Now().Format(time.RFC3339),
	}
	if name != nil {
		msg.DeviceName = *name
	}
	n.publish(fmt.Sprintf("fleet/%s/events", uuid), msg)
}

func (n *MQTTNotifier) RestartRequested(uuid string) {
	msg := message{Event: "restart", DeviceUUID: uuid, Timestamp: time.Now().Format(time.RFC3339)}
	n.publish(fmt.Sprintf("fleet/%s/commands", uuid), msg)
}

// Close disconnects the underlying MQTT client.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}

// LogNotifier is the fallback when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) DeviceOnline(uuid string, name *string) {
	log.Info().Str("uuid", uuid).Msg("device online")
}

func (LogNotifier) DeviceOffline(uuid string, name *string, gap time.Duration) {
	log.Warn().Str("uuid", uuid).Dur("gap", gap).Msg("device offline")
}

func (LogNotifier) RestartRequested(uuid string) {
	log.Info().Str("uuid", uuid).Msg("restart requested")
}
