package pipeline

import (
	"context"

	"github.com/swimform/swimform-go/internal/conf"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/mqtt"
	"github.com/swimform/swimform-go/internal/observability/metrics"
)

// newMQTTClient is replaced in tests.
var newMQTTClient = func(cfg mqtt.Config, m *metrics.MQTTMetrics) (mqtt.Client, error) {
	return mqtt.NewClient(cfg, m)
}

// connectPublisher connects to the broker. A broker that cannot be reached
// disables publishing for the run instead of failing it.
func connectPublisher(ctx context.Context, settings *conf.Settings, m *metrics.MQTTMetrics) (mqtt.Client, *mqtt.Publisher) {
	cfg := mqtt.ConfigFromSettings(settings.MQTT)
	client, err := newMQTTClient(cfg, m)
	if err != nil {
		GetLogger().Warn("mqtt publishing disabled", logger.Error(err))
		return nil, nil
	}
	if err := client.Connect(ctx); err != nil {
		GetLogger().Warn("mqtt publishing disabled",
			logger.String("broker", cfg.Broker),
			logger.Error(err))
		return nil, nil
	}
	publisher := mqtt.NewPublisher(client, cfg.Topic, mqtt.DefaultQueueSize)
	publisher.SetMetrics(m)
	return client, publisher
}
