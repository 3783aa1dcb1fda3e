package bridge

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kwv/geofc/codec"
)

// Direction picks which side of the wire a subscription handles.
type Direction int

const (
	// DirectionEncode subscribes to GeoJSON text and republishes wire bytes.
	DirectionEncode Direction = iota
	// DirectionDecode subscribes to wire bytes and republishes GeoJSON text.
	DirectionDecode
)

// ResultHandler is invoked after each message is translated, whether or
// not the translation succeeded, so callers can log, meter, or retry.
type ResultHandler func(correlationID, sourceTopic string, out []byte, err error)

// Client manages an MQTT connection that bridges raw GeoJSON payloads to
// this project's wire codec and back, one collection per message.
type Client struct {
	client      mqtt.Client
	config      *codec.Config
	srid        uint32
	scale       uint32
	resultFn    ResultHandler
	isConnected bool
	mu          sync.RWMutex
}

var (
	globalClient *Client
	clientMu     sync.Mutex
)

// Connect initializes the global MQTT client with the provided
// configuration. If MQTT_BROKER is unset and cfg.Bridge.Broker is empty,
// the bridge is disabled and this returns (nil, nil).
func Connect(cfg *codec.Config, srid, scale uint32, resultFn ResultHandler) (*Client, error) {
	clientMu.Lock()
	defer clientMu.Unlock()

	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && cfg != nil {
		broker = cfg.Bridge.Broker
	}
	if broker == "" {
		log.Println("MQTT bridge disabled: no broker configured")
		return nil, nil
	}
	if cfg == nil {
		return nil, fmt.Errorf("MQTT bridge enabled but no configuration provided")
	}

	c := &Client{
		config:   cfg,
		srid:     srid,
		scale:    scale,
		resultFn: resultFn,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" {
		clientID = cfg.Bridge.ClientID
	}
	if clientID == "" {
		clientID = "geofc-" + uuid.NewString()
	}
	opts.SetClientID(clientID)

	if username := os.Getenv("MQTT_USERNAME"); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(os.Getenv("MQTT_PASSWORD"))
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false)
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.client = mqtt.NewClient(opts)

	go c.connectWithRetry()

	globalClient = c
	return c, nil
}

// GetClient returns the global bridge client, if one has been connected.
func GetClient() *Client {
	clientMu.Lock()
	defer clientMu.Unlock()
	return globalClient
}

func (c *Client) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("bridge: connecting to MQTT broker...")
		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("bridge: connected to MQTT broker")
				c.setConnected(true)
				return
			}
			log.Printf("bridge: connection failed: %v", token.Error())
		} else {
			log.Println("bridge: connection timeout")
		}

		log.Printf("bridge: retrying in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

func (c *Client) onConnect(client mqtt.Client) {
	log.Println("bridge: subscribing to encode/decode topics...")
	c.setConnected(true)

	encodeTopic := c.config.Bridge.InTopicPrefix + "/+"
	if token := client.Subscribe(encodeTopic, 0, c.handler(DirectionEncode)); token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("bridge: error subscribing to %s: %v", encodeTopic, token.Error())
	}

	decodeTopic := c.config.Bridge.OutTopicPrefix + "/decode/+"
	if token := client.Subscribe(decodeTopic, 0, c.handler(DirectionDecode)); token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("bridge: error subscribing to %s: %v", decodeTopic, token.Error())
	}
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("bridge: connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *Client) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("bridge: reconnecting...")
}

// handler builds the message callback for one translation direction. Each
// message gets its own correlation id so encode/decode pairs can be
// traced through logs even with OrderMatters disabled.
func (c *Client) handler(dir Direction) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		correlationID := uuid.NewString()
		payload := msg.Payload()

		var out []byte
		var err error
		var destTopic string

		switch dir {
		case DirectionEncode:
			out, err = codec.EncodeFeatureCollection(payload, c.srid, c.scale)
			destTopic = c.outTopicFor(msg.Topic())
		case DirectionDecode:
			out, err = codec.DecodeFeatureCollection(payload)
			destTopic = c.decodeOutTopicFor(msg.Topic())
		}

		if err != nil {
			log.Printf("bridge[%s]: translating %s failed: %v", correlationID, msg.Topic(), err)
			if c.resultFn != nil {
				c.resultFn(correlationID, msg.Topic(), nil, err)
			}
			return
		}

		if client != nil {
			token := client.Publish(destTopic, 0, false, out)
			token.WaitTimeout(2 * time.Second)
		}

		if c.resultFn != nil {
			c.resultFn(correlationID, msg.Topic(), out, nil)
		}
	}
}

// outTopicFor derives the wire-bytes publish topic for an encode-direction
// source topic: geofc/in/<name> -> geofc/out/<name>.
func (c *Client) outTopicFor(sourceTopic string) string {
	suffix := strings.TrimPrefix(sourceTopic, c.config.Bridge.InTopicPrefix+"/")
	return c.config.Bridge.OutTopicPrefix + "/" + suffix
}

// decodeOutTopicFor derives the GeoJSON publish topic for a decode-direction
// source topic: geofc/out/decode/<name> -> geofc/in/decoded/<name>.
func (c *Client) decodeOutTopicFor(sourceTopic string) string {
	suffix := strings.TrimPrefix(sourceTopic, c.config.Bridge.OutTopicPrefix+"/decode/")
	return c.config.Bridge.InTopicPrefix + "/decoded/" + suffix
}

// IsConnected returns true if the MQTT client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *Client) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection.
func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("bridge: disconnecting from MQTT broker...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetClient returns the underlying paho client for advanced use (e.g. ad
// hoc publish in tests).
func (c *Client) GetClient() mqtt.Client {
	return c.client
}

// newClientWithMock builds a Client around an already-constructed
// mqtt.Client, used by tests to inject a mock broker.
func newClientWithMock(mc mqtt.Client, cfg *codec.Config, srid, scale uint32, resultFn ResultHandler) *Client {
	return &Client{
		client:   mc,
		config:   cfg,
		srid:     srid,
		scale:    scale,
		resultFn: resultFn,
	}
}
