// Package notify delivers threshold alerts to external channels.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/weather-monitor/internal/weather"
)

const publishTimeout = 5 * time.Second

// MQTTConfig configures the MQTT alert publisher.
type MQTTConfig struct {
	Broker   string
	Port     int
	ClientID string
	// Topic is the prefix; alerts go to <Topic>/<location>.
	Topic string
}

// MQTTPublisher publishes alerts as JSON. It implements weather.AlertSink.
type MQTTPublisher struct {
	client    mqtt.Client
	cfg       MQTTConfig
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// alertMessage is the wire format of a published alert.
type alertMessage struct {
	weather.Alert
	Message string `json:"message"`
}

// NewMQTTPublisher builds the client; call Connect before publishing.
func NewMQTTPublisher(cfg MQTTConfig, logger *slog.Logger) *MQTTPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Topic == "" {
		cfg.Topic = "weather/alerts"
	}
	p := &MQTTPublisher{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

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
		p.setConnected(true)
		logger.Info("notify: mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("notify: mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the initial connection, honoring ctx and Disconnect.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// Topic returns the topic an alert for location is published on.
func (p *MQTTPublisher) Topic(location string) string {
	return strings.TrimSuffix(p.cfg.Topic, "/") + "/" + topicSegment(location)
}

// Notify publishes the alert. Failures are logged and dropped.
func (p *MQTTPublisher) Notify(ctx context.Context, a weather.Alert) {
	if err := p.Publish(a); err != nil {
		p.logger.ErrorContext(ctx, "notify: failed to publish alert",
			"location", a.Location,
			"error", err,
		)
	}
}

// Publish sends one alert with QoS 1.
func (p *MQTTPublisher) Publish(a weather.Alert) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := json.Marshal(alertMessage{Alert: a, Message: a.Message()})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	topic := p.Topic(a.Location)
	token := p.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("publish alert: %w", token.Error())
	}

	p.logger.Debug("notify: published alert", "topic", topic, "location", a.Location)
	return nil
}

// IsConnected returns whether the client is connected.
func (p *MQTTPublisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher. Safe to call multiple times.
func (p *MQTTPublisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("notify: mqtt disconnected")
}

func (p *MQTTPublisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// topicSegment makes a location safe for use as a single MQTT topic level.
func topicSegment(location string) string {
	r := strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_")
	return strings.ToLower(r.Replace(strings.TrimSpace(location)))
}
