package mqtt

import (
	"context"
	"net"
	"net/url"
	"path"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/observability/metrics"
)

// ClientOption configures a client.
type ClientOption func(*client)

// WithPahoFactory replaces the function that builds the underlying paho
// client.
func WithPahoFactory(f func(*paho.ClientOptions) paho.Client) ClientOption {
	return func(c *client) { c.newPaho = f }
}

// WithResolver sets the resolver used to check broker hostnames.
func WithResolver(r *net.Resolver) ClientOption {
	return func(c *client) { c.resolver = r }
}

// client implements the Client interface.
type client struct {
	config          Config
	newPaho         func(*paho.ClientOptions) paho.Client
	resolver        *net.Resolver
	internalClient  paho.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
	metrics         *metrics.MQTTMetrics
	log             logger.Logger
}

// NewClient creates a new MQTT client with the provided configuration. m
// may be nil.
func NewClient(config Config, m *metrics.MQTTMetrics, opts ...ClientOption) (Client, error) {
	u, err := url.Parse(config.Broker)
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = errors.NewStd("broker URL needs a scheme and host")
		}
		return nil, errors.New(err).
			Component("mqtt").
			Category(errors.CategoryConfiguration).
			Context("broker", config.Broker).
			Build()
	}
	if config.ClientID == "" {
		config.ClientID = "swimform-" + uuid.NewString()[:8]
	}
	c := &client{
		config:   config,
		newPaho:  paho.NewClient,
		resolver: net.DefaultResolver,
		metrics:  m,
		log:      GetLogger().With(logger.String("broker", config.Broker)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect attempts to establish a connection to the MQTT broker.
// It first resolves the broker's hostname and then attempts to connect.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if since := time.Since(c.lastConnAttempt); since < c.config.ReconnectCooldown {
		return errors.Newf("connection attempt too recent, last attempt was %v ago", since).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Build()
	}
	c.lastConnAttempt = time.Now()

	u, _ := url.Parse(c.config.Broker)
	host := u.Hostname()

	// Check if the host is an IP address
	if net.ParseIP(host) == nil {
		if _, err := c.resolver.LookupHost(ctx, host); err != nil {
			return errors.New(err).
				Component("mqtt").
				Category(errors.CategoryNetwork).
				Context("host", host).
				Build()
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.internalClient = c.newPaho(opts)

	token := c.internalClient.Connect()
	if err := waitToken(ctx, token, c.config.ConnectTimeout); err != nil {
		c.incrementErrors()
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Context("broker", c.config.Broker).
			Build()
	}

	c.updateConnectionStatus(true)
	c.log.Info("connected to MQTT broker")
	return nil
}

// Publish sends a message to the specified topic on the MQTT broker.
func (c *client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isConnected() {
		return errors.Newf("not connected to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Context("topic", topic).
			Build()
	}

	start := time.Now()
	token := c.internalClient.Publish(topic, c.config.QoS, c.config.Retain, payload)
	if err := waitToken(ctx, token, c.config.PublishTimeout); err != nil {
		c.incrementErrors()
		c.log.Warn("publish failed",
			logger.String("topic", topic),
			logger.Error(err))
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	if c.metrics != nil {
		c.metrics.ObservePublish(path.Base(topic), len(payload), time.Since(start))
	}
	c.log.Trace("published",
		logger.String("topic", topic),
		logger.Int("bytes", len(payload)))
	return nil
}

// IsConnected returns true if the client is currently connected to the MQTT broker.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected()
}

func (c *client) isConnected() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isConnected() {
		c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
		c.updateConnectionStatus(false)
		c.log.Info("disconnected from MQTT broker")
	}
}

func (c *client) onConnect(paho.Client) {
	c.updateConnectionStatus(true)
}

func (c *client) onConnectionLost(_ paho.Client, err error) {
	c.log.Warn("connection to MQTT broker lost", logger.Error(err))
	c.updateConnectionStatus(false)
	c.incrementErrors()
}

func (c *client) onReconnecting(paho.Client, *paho.ClientOptions) {
	c.log.Debug("reconnecting to MQTT broker")
	if c.metrics != nil {
		c.metrics.IncrementReconnectAttempts()
	}
}

func (c *client) updateConnectionStatus(connected bool) {
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(connected)
	}
}

func (c *client) incrementErrors() {
	if c.metrics != nil {
		c.metrics.IncrementErrors()
	}
}

// waitToken blocks until token completes, ctx is done or timeout expires.
func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConfig().PublishTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.Newf("timed out after %v", timeout).
			Component("mqtt").
			Category(errors.CategoryTimeout).
			Build()
	}
}
