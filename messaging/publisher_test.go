package messaging

import (
	"errors"
	"testing"
)

// fakeBroker implements brokerPath for publisher tests.
type fakeBroker struct {
	connected bool
	failSend  bool
	sent      [][]byte
	keys      []string
}

func (f *fakeBroker) Publish(topic, key string, payload []byte, eventID string) error {
	if f.failSend {
		return errors.New("broker gone")
	}
	f.sent = append(f.sent, payload)
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeBroker) IsConnected() bool { return f.connected }
func (f *fakeBroker) Reconnect() error {
	if f.failSend {
		return errors.New("still down")
	}
	f.connected = true
	return nil
}

func TestPublishViaBroker(t *testing.T) {
	broker := &fakeBroker{connected: true}
	pub := NewPublisher(broker, NewBus(), NewRing(10), "events", "order-service", 0)

	if pub.State() != StateConnected {
		t.Fatalf("state = %s, want connected", pub.State())
	}
	evt := NewEvent(TypeOrderStatusUpdated, 42, "order-service", OrderStatusUpdatedPayload{NewStatus: "processing"})
	if err := pub.Publish(evt); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(broker.sent) != 1 {
		t.Fatalf("broker sends = %d, want 1", len(broker.sent))
	}
	if broker.keys[0] != "42" {
		t.Errorf("partition key = %q, want %q", broker.keys[0], "42")
	}
	if pub.Ring().Len() != 0 {
		t.Errorf("broker-path publish landed in ring")
	}
}

// A disconnected broker is invisible to the caller: publish still
// returns nil and subscribers still see the event.
func TestPublishFallsBackWhenDisconnected(t *testing.T) {
	pub := NewPublisher(&fakeBroker{}, NewBus(), NewRing(10), "events", "order-service", 0)

	var delivered []Event
	pub.Subscribe(TypeOrderStatusUpdated, func(evt Event) { delivered = append(delivered, evt) })

	evt := NewEvent(TypeOrderStatusUpdated, 7, "order-service", OrderStatusUpdatedPayload{NewStatus: "delivered"})
	if err := pub.Publish(evt); err != nil {
		t.Fatalf("fallback publish returned error: %v", err)
	}

	if len(delivered) != 1 || delivered[0].OrderID != 7 {
		t.Fatalf("delivered = %v", delivered)
	}
	if pub.Ring().Len() != 1 {
		t.Errorf("ring len = %d, want 1", pub.Ring().Len())
	}
}

func TestPublishDegradesOnSendFailure(t *testing.T) {
	broker := &fakeBroker{connected: true, failSend: true}
	pub := NewPublisher(broker, NewBus(), NewRing(10), "events", "order-service", 0)

	var got int
	pub.SubscribeAll(func(Event) { got++ })

	evt := NewEvent(TypePackageDelivered, 9, "order-service", PackageDeliveredPayload{DriverID: "d-1"})
	if err := pub.Publish(evt); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if pub.State() != StateDegraded {
		t.Errorf("state = %s, want degraded", pub.State())
	}
	if got != 1 {
		t.Errorf("fallback delivery count = %d, want 1", got)
	}
	if pub.Ring().Len() != 1 {
		t.Errorf("ring len = %d, want 1", pub.Ring().Len())
	}
}

func TestMarkDroppedDegrades(t *testing.T) {
	broker := &fakeBroker{connected: true}
	pub := NewPublisher(broker, NewBus(), NewRing(10), "events", "order-service", 0)

	pub.MarkDropped("events", errors.New("read failed"))
	if pub.State() != StateDegraded {
		t.Errorf("state = %s, want degraded", pub.State())
	}
}

func TestConnStateString(t *testing.T) {
	cases := map[ConnState]string{
		StateDisconnected: "disconnected",
		StateConnected:    "connected",
		StateDegraded:     "degraded",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
