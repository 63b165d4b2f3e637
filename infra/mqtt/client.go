// Package mqtt adapts the broker feed through which service-hour train
// failures reach the planner. Trains and the control centre publish
// withdrawal messages per route topic.
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kmrl/induction/infra/logger"
)

// Config holds the broker connection settings.
type Config struct {
	Broker   string `koanf:"broker"`
	ClientID string `koanf:"client_id"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Client is the minimal broker surface the listeners need.
type Client interface {
	Connect() error
	Subscribe(topic string, qos byte, cb func(topic string, payload []byte)) error
	Publish(topic string, qos byte, payload []byte) error
	Disconnect()
}

// pahoClient wraps the Eclipse Paho client.
type pahoClient struct {
	c   paho.Client
	log logger.Logger
}

// NewClient builds a Paho-backed Client.
func NewClient(cfg Config, log logger.Logger) Client {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warnf("mqtt connection lost: %v", err)
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("mqtt connected to %s", cfg.Broker)
	}
	return &pahoClient{c: paho.NewClient(opts), log: log}
}

func (p *pahoClient) Connect() error {
	tok := p.c.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: connect: %w", err)
	}
	return nil
}

func (p *pahoClient) Subscribe(topic string, qos byte, cb func(topic string, payload []byte)) error {
	tok := p.c.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		cb(msg.Topic(), msg.Payload())
	})
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", topic, err)
	}
	return nil
}

func (p *pahoClient) Publish(topic string, qos byte, payload []byte) error {
	tok := p.c.Publish(topic, qos, false, payload)
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

func (p *pahoClient) Disconnect() {
	p.c.Disconnect(250)
}
