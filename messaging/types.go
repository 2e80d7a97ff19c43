package messaging

import "encoding/json"

// Event types produced by this service.
const (
	TypeOrderCreated             = "ORDER_CREATED"
	TypeOrderStatusUpdated       = "ORDER_STATUS_UPDATED"
	TypeOrderProcessingUpdate    = "ORDER_PROCESSING_UPDATE"
	TypeOrderProcessingCompleted = "ORDER_PROCESSING_COMPLETED"
	TypeOrderProcessingFailed    = "ORDER_PROCESSING_FAILED"
)

// Event types consumed from other services.
const (
	TypeDriverAssigned         = "DRIVER_ASSIGNED"
	TypeDriverLocationUpdated  = "DRIVER_LOCATION_UPDATED"
	TypePackageScanned         = "PACKAGE_SCANNED"
	TypePackageDelivered       = "PACKAGE_DELIVERED"
	TypeClientOrderCancelled   = "CLIENT_ORDER_CANCELLED"
	TypeSystemMaintenanceStart = "SYSTEM_MAINTENANCE_START"
	TypeSystemMaintenanceEnd   = "SYSTEM_MAINTENANCE_END"
)

// --- Produced payloads ---

type OrderCreatedPayload struct {
	ClientID    string  `json:"clientId"`
	Priority    string  `json:"priority"`
	TotalAmount float64 `json:"totalAmount"`
}

type OrderStatusUpdatedPayload struct {
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	Note      string `json:"note,omitempty"`
	ActorID   string `json:"actorId,omitempty"`
	ActorKind string `json:"actorKind"`
}

type OrderProcessingUpdatePayload struct {
	Attempt int    `json:"attempt"`
	Stage   string `json:"stage,omitempty"`
	Detail  string `json:"detail"`
}

type OrderProcessingCompletedPayload struct {
	TrackingNumber        string `json:"trackingNumber"`
	EstimatedDeliveryTime string `json:"estimatedDeliveryTime"`
}

type OrderProcessingFailedPayload struct {
	Stage    string `json:"stage"`
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts"`
}

// --- Consumed payloads ---

type DriverAssignedPayload struct {
	DriverID   string `json:"driverId"`
	DriverName string `json:"driverName,omitempty"`
}

type DriverLocationUpdatedPayload struct {
	DriverID  string  `json:"driverId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type PackageScannedPayload struct {
	DriverID       string `json:"driverId"`
	TrackingNumber string `json:"trackingNumber"`
	ScanLocation   string `json:"scanLocation,omitempty"`
}

type PackageDeliveredPayload struct {
	DriverID  string `json:"driverId"`
	Recipient string `json:"recipient,omitempty"`
}

type ClientOrderCancelledPayload struct {
	Reason string `json:"reason"`
}

type MaintenancePayload struct {
	Component string `json:"component,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// UnknownPayload is the fallback variant for event types this service
// does not recognize. Consumers log and skip it rather than erroring.
type UnknownPayload struct {
	Type string
	Raw  json.RawMessage
}
