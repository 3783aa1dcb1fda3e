package bridge

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher republishes encoded wire payloads (or decoded GeoJSON) to MQTT,
// tracking the last payload sent per topic so a late subscriber can be
// caught up without re-running the codec.
type Publisher struct {
	client   mqtt.Client
	prefix   string
	qos      byte
	retain   bool
	lastSent map[string][]byte
	mu       sync.RWMutex
}

// NewPublisher creates a new Publisher. If client is nil, publishing is a
// no-op — useful for running the bridge's translation path without a live
// broker, e.g. in tests.
func NewPublisher(client mqtt.Client) *Publisher {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" {
		prefix = "geofc"
	}

	return &Publisher{
		client:   client,
		prefix:   prefix,
		qos:      0,
		retain:   true,
		lastSent: make(map[string][]byte),
	}
}

// Publish sends payload to topic and records it as the topic's retained
// value. Waiting for the broker's ack is capped at 2s, and a timeout is
// returned as an error, so a stalled broker cannot stall the caller
// indefinitely.
func (p *Publisher) Publish(topic string, payload []byte) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publishing to %s: timed out waiting for broker ack", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	p.mu.Lock()
	p.lastSent[topic] = payload
	p.mu.Unlock()

	log.Printf("bridge: published %d bytes to %s", len(payload), topic)
	return nil
}

// LastSent returns the last payload published to topic, if any.
func (p *Publisher) LastSent(topic string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	payload, ok := p.lastSent[topic]
	return payload, ok
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2).
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker.
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
