// Package mqtt subscribes to a command topic on an MQTT broker and feeds
// each inbound message payload to the orchestrator's command queue as a
// line from source "mqtt:<topic>".
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/freyr-engine/freyr/internal/orchestrator"
)

// Config configures the broker connection and the command topic to
// subscribe to.
type Config struct {
	Broker         string
	Topic          string
	QoS            byte
	ClientID       string
	Username       string
	Password       string
	CleanSession   bool
	AutoReconnect  bool
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
}

// Transport owns one paho client subscribed to Config.Topic, enqueueing
// every received payload as a command line.
type Transport struct {
	cfg    Config
	client paho.Client
	queue  *orchestrator.CommandQueue
}

// New validates cfg and returns an unconnected Transport; call Start to
// connect and subscribe.
func New(cfg Config, queue *orchestrator.CommandQueue) (*Transport, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt transport: broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt transport: topic is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("freyr_%d", time.Now().UnixNano())
	}
	if cfg.QoS > 2 {
		cfg.QoS = 2
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 60 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	return &Transport{cfg: cfg, queue: queue}, nil
}

// Start connects to the broker and subscribes to the command topic. It
// returns once the connection handshake completes or fails.
func (t *Transport) Start() error {
	opts := paho.NewClientOptions()
	opts.AddBroker(t.cfg.Broker)
	opts.SetClientID(t.cfg.ClientID)
	opts.SetCleanSession(t.cfg.CleanSession)
	opts.SetAutoReconnect(t.cfg.AutoReconnect)
	opts.SetKeepAlive(t.cfg.KeepAlive)
	opts.SetConnectTimeout(t.cfg.ConnectTimeout)
	if t.cfg.Username != "" {
		opts.SetUsername(t.cfg.Username)
		opts.SetPassword(t.cfg.Password)
	}
	opts.SetOnConnectHandler(func(c paho.Client) {
		token := c.Subscribe(t.cfg.Topic, t.cfg.QoS, t.onMessage)
		token.Wait()
	})

	t.client = paho.NewClient(opts)
	token := t.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt transport: connect: %w", err)
	}
	return nil
}

func (t *Transport) onMessage(_ paho.Client, msg paho.Message) {
	t.queue.Enqueue(string(msg.Payload()), "mqtt:"+msg.Topic())
}

// Stop unsubscribes and disconnects from the broker.
func (t *Transport) Stop() {
	if t.client == nil || !t.client.IsConnected() {
		return
	}
	t.client.Unsubscribe(t.cfg.Topic)
	t.client.Disconnect(250)
}
