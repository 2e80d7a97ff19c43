package messaging

import (
	"log"
	"strconv"
	"sync"
	"time"
)

// ConnState is the broker connection state owned by the Publisher. It is
// only ever mutated through setState, and queried through State.
type ConnState int

const (
	// StateDisconnected: no broker connection has been established.
	StateDisconnected ConnState = iota
	// StateConnected: broker path is live.
	StateConnected
	// StateDegraded: the broker was lost after connecting; publishes go
	// to the in-process fallback until the reconnect loop recovers.
	StateDegraded
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	default:
		return "disconnected"
	}
}

// brokerPath is the slice of BrokerClient the publisher needs.
type brokerPath interface {
	Publish(topic, key string, payload []byte, eventID string) error
	IsConnected() bool
	Reconnect() error
}

// Publisher is the dual delivery path. Publish prefers the broker; on any
// send failure it falls back to the in-process bus and the diagnostic
// ring, and still reports success. Callers cannot tell durable delivery
// from local-only delivery; that trade favors availability and is relied
// on throughout the pipeline.
type Publisher struct {
	mu      sync.RWMutex
	state   ConnState
	client  brokerPath
	bus     *Bus
	ring    *Ring
	topic   string
	service string

	reconnectEvery time.Duration
	stopOnce       sync.Once
	stopChan       chan struct{}
}

func NewPublisher(client brokerPath, bus *Bus, ring *Ring, topic, service string, reconnectEvery time.Duration) *Publisher {
	if reconnectEvery <= 0 {
		reconnectEvery = 10 * time.Second
	}
	p := &Publisher{
		client:         client,
		bus:            bus,
		ring:           ring,
		topic:          topic,
		service:        service,
		reconnectEvery: reconnectEvery,
		stopChan:       make(chan struct{}),
	}
	if client != nil && client.IsConnected() {
		p.state = StateConnected
	}
	return p
}

// Start launches the background reconnect loop.
func (p *Publisher) Start() {
	go p.reconnectLoop()
}

func (p *Publisher) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

func (p *Publisher) State() ConnState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// setState is the single mutation point for the connection state.
func (p *Publisher) setState(next ConnState, detail string) {
	p.mu.Lock()
	prev := p.state
	p.state = next
	p.mu.Unlock()
	if prev != next {
		log.Printf("messaging: broker %s -> %s (%s)", prev, next, detail)
	}
}

// Bus returns the in-process bus; subscriptions registered on it receive
// events from both delivery paths exactly once.
func (p *Publisher) Bus() *Bus { return p.bus }

// Ring returns the diagnostic buffer of fallback-path events.
func (p *Publisher) Ring() *Ring { return p.ring }

// Subscribe registers a local handler for one event type.
func (p *Publisher) Subscribe(eventType string, fn Handler) func() {
	return p.bus.Subscribe(eventType, fn)
}

// SubscribeAll registers a local handler for every event type.
func (p *Publisher) SubscribeAll(fn Handler) func() {
	return p.bus.SubscribeAll(fn)
}

// Publish delivers the event. The only error it can return is an encoding
// failure; delivery itself always succeeds from the caller's view, via
// the broker when connected or the fallback bus otherwise.
func (p *Publisher) Publish(evt Event) error {
	data, err := evt.Encode()
	if err != nil {
		return err
	}

	if p.State() == StateConnected {
		key := strconv.FormatInt(evt.OrderID, 10)
		if err := p.client.Publish(p.topic, key, data, evt.EventID); err == nil {
			return nil
		} else {
			p.setState(StateDegraded, "publish failed: "+err.Error())
		}
	}

	p.ring.Append(evt)
	p.bus.Publish(evt)
	return nil
}

// MarkDropped records a consumer-side disconnect; the reconnect loop
// takes it from there.
func (p *Publisher) MarkDropped(topic string, err error) {
	p.setState(StateDegraded, "consumer dropped on "+topic+": "+err.Error())
}

func (p *Publisher) reconnectLoop() {
	ticker := time.NewTicker(p.reconnectEvery)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			if p.State() == StateConnected || p.client == nil {
				continue
			}
			if err := p.client.Reconnect(); err != nil {
				continue
			}
			p.setState(StateConnected, "reconnected")
		}
	}
}
