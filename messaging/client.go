package messaging

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"lastmile/config"
)

type MessageHandler func(topic string, payload []byte)

// BrokerClient is the durable broker path: a Kafka producer/consumer pair.
// The writer hashes the message key to a partition, so all events for one
// order land on the same partition in publish order; synchronous sends
// with full acks give at-least-once, effectively-once per partition while
// the producer stays connected.
type BrokerClient struct {
	mu       sync.RWMutex
	cfg      *config.MessagingConfig
	kafka    *kafkaState
	handlers map[string]MessageHandler
	onDrop   func(topic string, err error)
}

type kafkaState struct {
	readers map[string]*kafka.Reader
	writer  *kafka.Writer
}

func NewBrokerClient(cfg *config.MessagingConfig) *BrokerClient {
	return &BrokerClient{
		cfg:      cfg,
		handlers: make(map[string]MessageHandler),
	}
}

// SetDropHandler registers a callback invoked when a consumer loses its
// connection. Must be called before Subscribe.
func (c *BrokerClient) SetDropHandler(fn func(topic string, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDrop = fn
}

func (c *BrokerClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	// Verify at least one broker is reachable
	var conn *kafka.Conn
	var connErr error
	for _, broker := range c.cfg.Kafka.Brokers {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		conn, connErr = kafka.DialContext(ctx, "tcp", broker)
		cancel()
		if connErr == nil {
			log.Printf("messaging: kafka connected to %s", broker)
			break
		}
	}
	if connErr != nil {
		return fmt.Errorf("kafka connect: %w", connErr)
	}

	c.ensureTopics(conn, c.cfg.EventsTopic)
	conn.Close()

	c.kafka = &kafkaState{
		readers: make(map[string]*kafka.Reader),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(c.cfg.Kafka.Brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
		},
	}
	return nil
}

// Publish sends one message keyed for partition ordering, with the
// transport headers the event contract requires.
func (c *BrokerClient) Publish(topic, key string, payload []byte, eventID string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.kafka == nil || c.kafka.writer == nil {
		return fmt.Errorf("kafka not connected")
	}
	return c.kafka.writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "service", Value: []byte(c.cfg.ServiceName)},
			{Key: "event-id", Value: []byte(eventID)},
		},
	})
}

// ensureTopics creates Kafka topics if they don't already exist.
// Errors are logged but not fatal since the broker may have
// auto.create.topics.enable=true anyway.
func (c *BrokerClient) ensureTopics(conn *kafka.Conn, topics ...string) {
	if len(topics) == 0 {
		return
	}

	controller, err := conn.Controller()
	if err != nil {
		log.Printf("messaging: cannot find controller for topic creation: %v", err)
		return
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := kafka.Dial("tcp", controllerAddr)
	if err != nil {
		log.Printf("messaging: cannot connect to controller: %v", err)
		return
	}
	defer controllerConn.Close()

	configs := make([]kafka.TopicConfig, len(topics))
	for i, t := range topics {
		configs[i] = kafka.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}

	if err := controllerConn.CreateTopics(configs...); err != nil {
		log.Printf("messaging: topic auto-create: %v", err)
	} else {
		log.Printf("messaging: ensured topics exist: %v", topics)
	}
}

// Subscribe registers a handler and, when connected, starts a
// consumer-group reader for the topic. The registration survives
// disconnects: Reconnect restores every subscription.
func (c *BrokerClient) Subscribe(topic string, handler MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[topic] = handler

	if c.kafka == nil {
		return fmt.Errorf("kafka not connected")
	}
	c.startReader(topic, handler)
	return nil
}

// startReader must be called with the lock held and kafka non-nil.
func (c *BrokerClient) startReader(topic string, handler MessageHandler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: c.cfg.Kafka.Brokers,
		Topic:   topic,
		GroupID: c.cfg.Kafka.GroupID,
	})
	c.kafka.readers[topic] = reader
	onDrop := c.onDrop
	go func() {
		for {
			msg, err := reader.ReadMessage(context.Background())
			if err != nil {
				if onDrop != nil {
					onDrop(topic, err)
				}
				return
			}
			handler(msg.Topic, msg.Value)
		}
	}()
}

func (c *BrokerClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kafka != nil
}

// Reconnect closes the existing connection, reconnects, and restores all
// previously registered subscriptions so no topic silently stops being
// served.
func (c *BrokerClient) Reconnect() error {
	c.Close()
	if err := c.Connect(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, handler := range c.handlers {
		c.startReader(topic, handler)
	}
	return nil
}

func (c *BrokerClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kafka != nil {
		for _, r := range c.kafka.readers {
			r.Close()
		}
		if c.kafka.writer != nil {
			c.kafka.writer.Close()
		}
		c.kafka = nil
	}
}
