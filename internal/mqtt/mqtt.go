// Package mqtt publishes analysis events to an MQTT broker.
package mqtt

import (
	"context"
	"time"

	"github.com/swimform/swimform-go/internal/conf"
)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error

	// Publish sends payload to topic. It returns when the broker has
	// acknowledged the message, ctx is done, or the publish timeout expires.
	Publish(ctx context.Context, topic string, payload []byte) error

	// IsConnected returns true if the client is currently connected to the MQTT broker.
	IsConnected() bool

	// Disconnect closes the connection to the MQTT broker.
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string // root topic for session events
	QoS      byte
	Retain   bool // true to retain messages at the broker

	ReconnectCooldown time.Duration
	// Connection timeouts
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable default values
func DefaultConfig() Config {
	return Config{
		Topic:             "swimform",
		QoS:               1,
		ReconnectCooldown: 5 * time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

// ConfigFromSettings maps MQTT settings onto a client configuration.
func ConfigFromSettings(s conf.MQTTSettings) Config {
	cfg := DefaultConfig()
	cfg.Broker = s.Broker
	cfg.ClientID = s.ClientID
	cfg.Username = s.Username
	cfg.Password = s.Password
	cfg.QoS = s.QoS
	cfg.Retain = s.Retain
	if s.Topic != "" {
		cfg.Topic = s.Topic
	}
	if s.Timeout > 0 {
		cfg.PublishTimeout = s.Timeout
	}
	return cfg
}
