package messaging

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lastmile/store"
	"lastmile/tracking"
)

// OrderEventHandler consumes events published by other services and maps
// them onto ledger transitions. It goes through the same status-update
// primitive as the orchestrator, so transitions stay serialized per order
// no matter who requests them. The ledger accepts any status string;
// transition legality lives here.
type OrderEventHandler struct {
	db        *store.DB
	tracker   *tracking.Manager
	publisher *Publisher
	service   string
}

func NewOrderEventHandler(db *store.DB, tracker *tracking.Manager, publisher *Publisher, service string) *OrderEventHandler {
	return &OrderEventHandler{
		db:        db,
		tracker:   tracker,
		publisher: publisher,
		service:   service,
	}
}

// Register wires the handler onto the bus. It subscribes to everything:
// produced types fall through the switch, and unknown types get the
// default logging action.
func (h *OrderEventHandler) Register(bus *Bus) func() {
	return bus.SubscribeAll(h.Handle)
}

func (h *OrderEventHandler) Handle(evt Event) {
	switch p := evt.Payload.(type) {
	case DriverAssignedPayload:
		h.transition(evt.OrderID, store.StatusOutForDelivery,
			fmt.Sprintf("driver %s assigned", p.DriverID), p.DriverID, store.ActorDriver)
	case DriverLocationUpdatedPayload:
		h.tracker.Update(context.Background(), tracking.DriverLocation{
			DriverID:  p.DriverID,
			OrderID:   evt.OrderID,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			UpdatedAt: evt.Timestamp,
		})
	case PackageScannedPayload:
		h.transition(evt.OrderID, store.StatusInTransit,
			fmt.Sprintf("package scanned at %s", p.ScanLocation), p.DriverID, store.ActorDriver)
	case PackageDeliveredPayload:
		h.transition(evt.OrderID, store.StatusDelivered, "package delivered", p.DriverID, store.ActorDriver)
	case ClientOrderCancelledPayload:
		h.cancel(evt.OrderID, p.Reason)
	case MaintenancePayload:
		log.Printf("handler: %s: %s %s", evt.Type, p.Component, p.Detail)
	case UnknownPayload:
		log.Printf("handler: unknown event type %q, ignoring", p.Type)
	}
}

func (h *OrderEventHandler) transition(orderID int64, status, note, actorID, actorKind string) {
	old, _, err := h.db.UpdateStatus(orderID, status, note, actorID, actorKind)
	if err != nil {
		var nf *store.NotFoundError
		if errors.As(err, &nf) {
			log.Printf("handler: order %d not found for %s", orderID, status)
			return
		}
		log.Printf("handler: transition order %d to %s: %v", orderID, status, err)
		return
	}
	h.publisher.Publish(NewEvent(TypeOrderStatusUpdated, orderID, h.service, OrderStatusUpdatedPayload{
		OldStatus: old,
		NewStatus: status,
		Note:      note,
		ActorID:   actorID,
		ActorKind: actorKind,
	}))
}

// cancel refuses to move an order out of a terminal state; everything
// pre-delivery may be cancelled.
func (h *OrderEventHandler) cancel(orderID int64, reason string) {
	order, err := h.db.GetOrder(orderID)
	if err != nil {
		log.Printf("handler: cancel order %d: %v", orderID, err)
		return
	}
	if store.TerminalStatus(order.Status) {
		log.Printf("handler: cancel order %d ignored, already %s", orderID, order.Status)
		return
	}
	h.transition(orderID, store.StatusCancelled, reason, order.ClientID, store.ActorClient)
}
