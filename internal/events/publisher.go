// Package events publishes degradation notices to an MQTT broker whenever an
// aggregate record had to fall back to synthetic data.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

var (
	// ErrNotConnected is returned by Publish before the broker connection is up.
	ErrNotConnected = errors.New("mqtt client not connected")
	errStopped      = errors.New("publisher stopped")
)

// Config addresses the broker.
type Config struct {
	Broker   string
	Port     int
	ClientID string
	Topic    string
}

// DegradationEvent is the JSON payload published for a degraded record.
type DegradationEvent struct {
	RecordID    string                  `json:"recordId"`
	Location    climate.Location        `json:"location"`
	Synthetic   []climate.SourceOutcome `json:"synthetic"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

// NewDegradationEvent lists the data feeds of record that are not live.
func NewDegradationEvent(record climate.ClimateRecord) DegradationEvent {
	ev := DegradationEvent{
		RecordID:    record.ID,
		Location:    record.Location,
		GeneratedAt: record.GeneratedAt,
		Synthetic:   []climate.SourceOutcome{},
	}
	for _, s := range record.Sources {
		if !s.Live && s.Feed != climate.FeedGeocoding {
			ev.Synthetic = append(ev.Synthetic, s)
		}
	}
	return ev
}

// Publisher implements climate.DegradationPublisher over MQTT.
type Publisher struct {
	client    mqtt.Client
	cfg       Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
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
		logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the initial broker connection, honouring ctx and Close.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return errStopped
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
			return errStopped
		default:
		}
	}
}

// PublishDegraded sends a DegradationEvent for record at QoS 1.
func (p *Publisher) PublishDegraded(ctx context.Context, record climate.ClimateRecord) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}

	data, err := json.Marshal(NewDegradationEvent(record))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(p.cfg.Topic, 1, false, data)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("publish timeout for topic %s", p.cfg.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish degradation: %w", err)
	}

	p.logger.Debug("published degradation event", "topic", p.cfg.Topic, "record", record.ID)
	return nil
}

// IsConnected returns whether the client is connected.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Close stops the publisher. Safe to call more than once.
func (p *Publisher) Close() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("mqtt publisher disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
