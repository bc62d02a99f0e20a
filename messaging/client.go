// Package messaging moves protocol envelopes over MQTT or Kafka and keeps
// an outbox for messages that could not be sent.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/arpg/bobcat/config"
)

const (
	qos            = 1
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Handler receives the raw bytes of one inbound message.
type Handler func(payload []byte)

// Client is the robot's link to the team network over MQTT or Kafka.
// Subscriptions are remembered and re-applied whenever the MQTT session
// is re-established, so Subscribe may be called before the broker is
// reachable.
type Client struct {
	cfg     *config.MessagingConfig
	backend string

	mu     sync.RWMutex
	subs   map[string]Handler
	mqtt   mqtt.Client
	writer *kafkago.Writer
	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup
}

// NewClient creates a client for cfg.Backend. Call Connect before use.
func NewClient(cfg *config.MessagingConfig) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:     cfg,
		backend: cfg.Backend,
		subs:    make(map[string]Handler),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect establishes the link. An unreachable MQTT broker is not an
// error: the client keeps retrying in the background.
func (c *Client) Connect() error {
	switch c.backend {
	case "mqtt":
		return c.connectMQTT()
	case "kafka":
		return c.connectKafka()
	default:
		return fmt.Errorf("unknown messaging backend: %s", c.backend)
	}
}

func (c *Client) connectMQTT() error {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.cfg.MQTT.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("messaging: mqtt connection to %s lost: %v", broker, err)
		}).
		SetOnConnectHandler(func(cl mqtt.Client) {
			log.Printf("messaging: mqtt connected to %s", broker)
			c.resubscribe(cl)
		})

	cl := mqtt.NewClient(opts)
	c.mu.Lock()
	c.mqtt = cl
	c.mu.Unlock()

	token := cl.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("messaging: mqtt broker %s not reachable yet, retrying in background", broker)
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	return nil
}

// resubscribe re-applies every remembered subscription on a fresh session.
func (c *Client) resubscribe(cl mqtt.Client) {
	c.mu.RLock()
	subs := make(map[string]Handler, len(c.subs))
	for topic, h := range c.subs {
		subs[topic] = h
	}
	c.mu.RUnlock()

	for topic, h := range subs {
		if err := c.subscribeMQTT(cl, topic, h); err != nil {
			log.Printf("messaging: resubscribe %s: %v", topic, err)
		}
	}
}

func (c *Client) subscribeMQTT(cl mqtt.Client, topic string, h Handler) error {
	token := cl.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Payload())
	})
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	return token.Error()
}

func (c *Client) connectKafka() error {
	if len(c.cfg.Kafka.Brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	c.mu.Lock()
	c.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(c.cfg.Kafka.Brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           publishTimeout,
	}
	c.mu.Unlock()
	return nil
}

// Publish sends payload on topic, waiting at most a few seconds.
func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.RLock()
	cl, w := c.mqtt, c.writer
	c.mu.RUnlock()

	switch c.backend {
	case "mqtt":
		if cl == nil || !cl.IsConnectionOpen() {
			return errors.New("mqtt not connected")
		}
		token := cl.Publish(topic, qos, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("mqtt publish %s: timeout", topic)
		}
		return token.Error()
	case "kafka":
		if w == nil {
			return errors.New("kafka writer not initialized")
		}
		ctx, cancel := context.WithTimeout(c.ctx, publishTimeout)
		defer cancel()
		return w.WriteMessages(ctx, kafkago.Message{Topic: topic, Value: payload})
	default:
		return fmt.Errorf("unknown messaging backend: %s", c.backend)
	}
}

// Subscribe delivers every message on topic to h. Handlers run on the
// transport's goroutine and must not block.
func (c *Client) Subscribe(topic string, h Handler) error {
	c.mu.Lock()
	if _, dup := c.subs[topic]; dup {
		c.mu.Unlock()
		return fmt.Errorf("already subscribed to %s", topic)
	}
	c.subs[topic] = h
	cl := c.mqtt
	c.mu.Unlock()

	switch c.backend {
	case "mqtt":
		if cl == nil || !cl.IsConnectionOpen() {
			// applied by the on-connect handler
			return nil
		}
		return c.subscribeMQTT(cl, topic, h)
	case "kafka":
		c.wg.Add(1)
		go c.readKafka(topic, h)
		return nil
	default:
		return fmt.Errorf("unknown messaging backend: %s", c.backend)
	}
}

func (c *Client) readKafka(topic string, h Handler) {
	defer c.wg.Done()
	groupID := c.cfg.Kafka.GroupID
	if groupID == "" {
		groupID = c.cfg.MQTT.ClientID
	}
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: c.cfg.Kafka.Brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer r.Close()
	for {
		msg, err := r.ReadMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("messaging: kafka read %s: %v", topic, err)
			}
			return
		}
		h(msg.Value)
	}
}

// IsConnected reports whether a publish would be attempted right now.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.backend {
	case "mqtt":
		return c.mqtt != nil && c.mqtt.IsConnectionOpen()
	case "kafka":
		return c.writer != nil
	default:
		return false
	}
}

// Close stops the readers and disconnects.
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mqtt != nil {
		c.mqtt.Disconnect(250)
		c.mqtt = nil
	}
	if c.writer != nil {
		c.writer.Close()
		c.writer = nil
	}
}
