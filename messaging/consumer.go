package messaging

import (
	"log"
)

// Consumer pulls events off the broker topic (named consumer group, so
// service instances share partitions) and dispatches them onto the
// in-process bus. Handlers therefore see each event exactly once whether
// it arrived via the broker or via a fallback-path publish.
type Consumer struct {
	client *BrokerClient
	bus    *Bus
	topic  string
}

func NewConsumer(client *BrokerClient, bus *Bus, topic string) *Consumer {
	return &Consumer{
		client: client,
		bus:    bus,
		topic:  topic,
	}
}

func (c *Consumer) Start() error {
	return c.client.Subscribe(c.topic, c.handleMessage)
}

func (c *Consumer) handleMessage(_ string, payload []byte) {
	evt, err := DecodeEvent(payload)
	if err != nil {
		log.Printf("consumer: decode error: %v", err)
		return
	}
	c.bus.Publish(*evt)
}
