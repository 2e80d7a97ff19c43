package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one domain event. On the wire it is a flattened JSON object:
// the envelope fields {type, orderId, timestamp, service} plus the
// payload's own fields at the top level. The order id doubles as the
// partition/ordering key on the broker path.
type Event struct {
	Type      string
	OrderID   int64
	EventID   string
	Service   string
	Timestamp time.Time
	Payload   any
}

// NewEvent creates an outbound event with a generated id and timestamp.
func NewEvent(eventType string, orderID int64, service string, payload any) Event {
	return Event{
		Type:      eventType,
		OrderID:   orderID,
		EventID:   uuid.New().String(),
		Service:   service,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// rawEnvelope is used for two-stage decoding: first the envelope fields,
// then the payload based on type.
type rawEnvelope struct {
	Type      string `json:"type"`
	OrderID   int64  `json:"orderId"`
	UserID    int64  `json:"userId"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// Encode marshals the event to its flattened wire form.
func (e *Event) Encode() ([]byte, error) {
	body := make(map[string]any)
	if e.Payload != nil {
		pdata, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode event payload: %w", err)
		}
		if err := json.Unmarshal(pdata, &body); err != nil {
			return nil, fmt.Errorf("flatten event payload: %w", err)
		}
	}
	body["type"] = e.Type
	body["orderId"] = e.OrderID
	body["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339)
	body["service"] = e.Service
	return json.Marshal(body)
}

// DecodeEvent unmarshals a wire message into a typed Event. Unrecognized
// types decode into UnknownPayload instead of failing, so a consumer can
// route them to its default handler.
func DecodeEvent(data []byte) (*Event, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	evt := &Event{
		Type:    raw.Type,
		OrderID: raw.OrderID,
		Service: raw.Service,
	}
	if evt.OrderID == 0 && raw.UserID != 0 {
		evt.OrderID = raw.UserID
	}
	if raw.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			evt.Timestamp = ts
		}
	}

	// Second pass over the same bytes; payload structs ignore the
	// envelope keys.
	var payload any
	var err error
	switch raw.Type {
	case TypeOrderCreated:
		payload, err = decodeAs[OrderCreatedPayload](data)
	case TypeOrderStatusUpdated:
		payload, err = decodeAs[OrderStatusUpdatedPayload](data)
	case TypeOrderProcessingUpdate:
		payload, err = decodeAs[OrderProcessingUpdatePayload](data)
	case TypeOrderProcessingCompleted:
		payload, err = decodeAs[OrderProcessingCompletedPayload](data)
	case TypeOrderProcessingFailed:
		payload, err = decodeAs[OrderProcessingFailedPayload](data)
	case TypeDriverAssigned:
		payload, err = decodeAs[DriverAssignedPayload](data)
	case TypeDriverLocationUpdated:
		payload, err = decodeAs[DriverLocationUpdatedPayload](data)
	case TypePackageScanned:
		payload, err = decodeAs[PackageScannedPayload](data)
	case TypePackageDelivered:
		payload, err = decodeAs[PackageDeliveredPayload](data)
	case TypeClientOrderCancelled:
		payload, err = decodeAs[ClientOrderCancelledPayload](data)
	case TypeSystemMaintenanceStart, TypeSystemMaintenanceEnd:
		payload, err = decodeAs[MaintenancePayload](data)
	default:
		payload = UnknownPayload{Type: raw.Type, Raw: append([]byte(nil), data...)}
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", raw.Type, err)
	}
	evt.Payload = payload
	return evt, nil
}

func decodeAs[T any](data []byte) (T, error) {
	var p T
	err := json.Unmarshal(data, &p)
	return p, err
}
