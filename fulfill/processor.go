package fulfill

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lastmile/config"
	"lastmile/messaging"
	"lastmile/partners"
	"lastmile/store"
)

// EventSink is the publish side of the event subsystem. The concrete
// implementation never fails a publish (broker outages degrade to the
// in-process path), but the signature keeps the error for symmetry.
type EventSink interface {
	Publish(evt messaging.Event) error
}

// Processor drives one order through the integration pipeline:
// CMS validation, WMS intake, ROS routing, in that order. Each attempt
// records a `processing` transition; success lands on `pickup_scheduled`,
// exhausted retries on `failed`. Retries are durable rows, not timers.
type Processor struct {
	db     *store.DB
	cms    partners.CMS
	wms    partners.WMS
	ros    partners.ROS
	events EventSink

	service     string
	maxAttempts int
	retryDelay  time.Duration
	batchSize   int
	batchPause  time.Duration
}

func NewProcessor(db *store.DB, cms partners.CMS, wms partners.WMS, ros partners.ROS, events EventSink, cfg config.FulfillmentConfig, service string) *Processor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.BulkBatchSize <= 0 {
		cfg.BulkBatchSize = 10
	}
	if cfg.BulkBatchPause <= 0 {
		cfg.BulkBatchPause = time.Second
	}
	return &Processor{
		db:          db,
		cms:         cms,
		wms:         wms,
		ros:         ros,
		events:      events,
		service:     service,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		batchSize:   cfg.BulkBatchSize,
		batchPause:  cfg.BulkBatchPause,
	}
}

// ProcessOrder runs the pipeline from the first attempt.
func (p *Processor) ProcessOrder(ctx context.Context, orderID int64) error {
	return p.ProcessAttempt(ctx, orderID, 1)
}

// ProcessAttempt runs one attempt. A retryable failure below the attempt
// cap schedules a durable retry and returns nil; only a missing order or
// exhausted attempts surface an error to the caller.
func (p *Processor) ProcessAttempt(ctx context.Context, orderID int64, attempt int) error {
	order, err := p.db.GetOrder(orderID)
	if err != nil {
		var nf *store.NotFoundError
		if errors.As(err, &nf) {
			log.Printf("fulfill: order %d not found, not retrying", orderID)
		}
		return err
	}
	items, err := p.db.OrderItems(orderID)
	if err != nil {
		return fmt.Errorf("load order %d items: %w", orderID, err)
	}

	log.Printf("fulfill: order %d attempt %d/%d", orderID, attempt, p.maxAttempts)
	p.transition(orderID, store.StatusProcessing, fmt.Sprintf("processing attempt %d", attempt))

	if err := p.runIntegrations(ctx, order, items); err != nil {
		return p.handleFailure(orderID, attempt, err)
	}

	p.transition(orderID, store.StatusPickupScheduled, "pickup scheduled")
	p.events.Publish(messaging.NewEvent(messaging.TypeOrderProcessingCompleted, orderID, p.service,
		messaging.OrderProcessingCompletedPayload{
			TrackingNumber:        order.TrackingNumber,
			EstimatedDeliveryTime: order.EstimatedDelivery,
		}))
	log.Printf("fulfill: order %d completed, tracking %s", orderID, order.TrackingNumber)
	return nil
}

// runIntegrations calls the three partners in order, persisting each
// result before moving on. References already written stay written even
// if a later step fails; the next attempt overwrites them.
func (p *Processor) runIntegrations(ctx context.Context, order *store.Order, items []*store.OrderItem) error {
	vres, err := p.cms.ValidateOrder(ctx, &partners.ValidationRequest{
		OrderID:         order.ID,
		ClientID:        order.ClientID,
		TotalAmount:     order.TotalAmount,
		PaymentStatus:   order.PaymentStatus,
		DeliveryAddress: order.DeliveryAddress,
	})
	if err != nil {
		return &IntegrationError{Stage: StageCMS, Message: err.Error()}
	}
	if !vres.Success {
		return &IntegrationError{Stage: StageCMS, Message: vres.Message}
	}
	if err := p.db.SetCMSResult(order.ID, vres.ReferenceID, vres.ContractID); err != nil {
		return fmt.Errorf("persist CMS result for order %d: %w", order.ID, err)
	}
	order.CMSReference = vres.ReferenceID
	order.ContractID = vres.ContractID

	intake := make([]partners.IntakeItem, 0, len(items))
	for _, it := range items {
		intake = append(intake, partners.IntakeItem{
			Description:  it.Description,
			Quantity:     it.Quantity,
			Weight:       it.Weight,
			Value:        it.Value,
			Instructions: it.Instructions,
		})
	}
	ires, err := p.wms.CreateIntakeRequest(ctx, &partners.IntakeRequest{
		OrderID:       order.ID,
		ClientID:      order.ClientID,
		PickupAddress: order.PickupAddress,
		Priority:      order.Priority,
		Items:         intake,
	})
	if err != nil {
		return &IntegrationError{Stage: StageWMS, Message: err.Error()}
	}
	if !ires.Success {
		return &IntegrationError{Stage: StageWMS, Message: ires.Message}
	}
	if err := p.db.SetWMSResult(order.ID, ires.ReferenceID, ires.TrackingNumber); err != nil {
		return fmt.Errorf("persist WMS result for order %d: %w", order.ID, err)
	}
	order.WMSReference = ires.ReferenceID
	order.TrackingNumber = ires.TrackingNumber

	// ROS cannot route without the tracking number. Fail fast here
	// instead of letting ROS reject an incomplete request.
	if order.TrackingNumber == "" {
		return &PreconditionError{Reason: "WMS intake returned no tracking number"}
	}

	rres, err := p.ros.OptimizeRoute(ctx, &partners.RouteRequest{
		OrderID:         order.ID,
		TrackingNumber:  order.TrackingNumber,
		PickupAddress:   order.PickupAddress,
		DeliveryAddress: order.DeliveryAddress,
		Priority:        order.Priority,
	})
	if err != nil {
		return &IntegrationError{Stage: StageROS, Message: err.Error()}
	}
	if !rres.Success {
		return &IntegrationError{Stage: StageROS, Message: rres.Message}
	}
	if err := p.db.SetROSResult(order.ID, rres.ReferenceID, rres.EstimatedDeliveryTime); err != nil {
		return fmt.Errorf("persist ROS result for order %d: %w", order.ID, err)
	}
	order.ROSReference = rres.ReferenceID
	order.EstimatedDelivery = rres.EstimatedDeliveryTime
	return nil
}

// handleFailure either schedules the next attempt or marks the order
// failed. The order stays in `processing` while a retry is pending; the
// next attempt's transition provides the history row.
func (p *Processor) handleFailure(orderID int64, attempt int, cause error) error {
	stage := failureStage(cause)
	if attempt < p.maxAttempts {
		runAt := time.Now().Add(p.retryDelay)
		if err := p.db.EnqueueRetry(orderID, attempt+1, runAt); err != nil {
			log.Printf("fulfill: enqueue retry for order %d: %v", orderID, err)
			return fmt.Errorf("schedule retry for order %d: %w", orderID, err)
		}
		p.events.Publish(messaging.NewEvent(messaging.TypeOrderProcessingUpdate, orderID, p.service,
			messaging.OrderProcessingUpdatePayload{
				Attempt: attempt,
				Stage:   stage,
				Detail:  fmt.Sprintf("attempt %d failed: %v, retry scheduled", attempt, cause),
			}))
		log.Printf("fulfill: order %d attempt %d failed (%v), retrying in %s", orderID, attempt, cause, p.retryDelay)
		return nil
	}

	p.transition(orderID, store.StatusFailed, fmt.Sprintf("attempt %d failed: %v", attempt, cause))
	p.events.Publish(messaging.NewEvent(messaging.TypeOrderProcessingFailed, orderID, p.service,
		messaging.OrderProcessingFailedPayload{
			Stage:    stage,
			Reason:   cause.Error(),
			Attempts: attempt,
		}))
	log.Printf("fulfill: order %d failed after %d attempts: %v", orderID, attempt, cause)
	return fmt.Errorf("order %d failed after %d attempts: %w", orderID, attempt, cause)
}

func (p *Processor) transition(orderID int64, status, note string) {
	old, _, err := p.db.UpdateStatus(orderID, status, note, "fulfillment", store.ActorSystem)
	if err != nil {
		log.Printf("fulfill: transition order %d to %s: %v", orderID, status, err)
		return
	}
	p.events.Publish(messaging.NewEvent(messaging.TypeOrderStatusUpdated, orderID, p.service,
		messaging.OrderStatusUpdatedPayload{
			OldStatus: old,
			NewStatus: status,
			Note:      note,
			ActorID:   "fulfillment",
			ActorKind: store.ActorSystem,
		}))
}

func failureStage(err error) string {
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie.Stage
	}
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return StageROS
	}
	return ""
}
