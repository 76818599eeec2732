package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

var (
	ErrNotConnected   = errors.New("device channel not connected")
	ErrChannelStopped = errors.New("device channel stopped")
	ErrPublishTimeout = errors.New("publish timeout")
)

// MQTTConfig configures the MQTT-backed device channel.
type MQTTConfig struct {
	Broker   string
	Port     int
	ClientID string

	// DeviceID selects the topic devices/{DeviceID}/appmessage.
	DeviceID string

	// PublishTimeout bounds the wait for a publish acknowledgement.
	// Default: 5 seconds
	PublishTimeout time.Duration

	Logger zerolog.Logger
}

// MQTTChannel publishes encoded app messages to the watch's topic.
type MQTTChannel struct {
	client         mqtt.Client
	topic          string
	publishTimeout time.Duration
	logger         zerolog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMQTTChannel creates a channel; call Connect before sending.
func NewMQTTChannel(cfg MQTTConfig) *MQTTChannel {
	c := newChannel(nil, cfg)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		c.logger.Info().Str("broker", cfg.Broker).Int("port", cfg.Port).Msg("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		c.logger.Warn().Err(err).Msg("mqtt connection lost")
	})

	c.client = mqtt.NewClient(opts)
	return c
}

func newChannel(client mqtt.Client, cfg MQTTConfig) *MQTTChannel {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTChannel{
		client:         client,
		topic:          fmt.Sprintf("devices/%s/appmessage", cfg.DeviceID),
		publishTimeout: timeout,
		logger:         cfg.Logger.With().Str("component", "device").Logger(),
		stopCh:         make(chan struct{}),
	}
}

// Topic returns the topic messages are published to.
func (c *MQTTChannel) Topic() string {
	return c.topic
}

// Connect waits for the initial broker connection, respecting ctx and Disconnect.
func (c *MQTTChannel) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return ErrChannelStopped
	default:
	}

	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			c.setConnected(true)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return ErrChannelStopped
		default:
		}
	}
}

// Send encodes msg and publishes it with QoS 1.
func (c *MQTTChannel) Send(ctx context.Context, msg Message) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	payload, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	token := c.client.Publish(c.topic, 1, false, payload)

	timer := time.NewTimer(c.publishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("%w: topic %s", ErrPublishTimeout, c.topic)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", c.topic, err)
	}

	c.logger.Debug().
		Str("topic", c.topic).
		Str("kind", msg.Kind()).
		Int("bytes", len(payload)).
		Msg("published app message")
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *MQTTChannel) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect stops the channel. Safe to call more than once.
func (c *MQTTChannel) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })

	if c.client != nil {
		c.client.Disconnect(250)
	}

	c.setConnected(false)
	c.logger.Info().Msg("mqtt disconnected")
}

func (c *MQTTChannel) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
