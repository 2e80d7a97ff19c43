package partners

import "context"

// The three external systems the fulfillment pipeline integrates with,
// always in the order CMS -> WMS -> ROS. Each is a remote collaborator
// with its own connectivity state; Ping is the health probe and is never
// fatal at startup.

type CMS interface {
	// ValidateOrder checks billing/contract eligibility for the order.
	ValidateOrder(ctx context.Context, req *ValidationRequest) (*ValidationResult, error)
	Ping() error
	Name() string
}

type WMS interface {
	// CreateIntakeRequest registers physical intake and issues the
	// tracking number that becomes the order's external identifier.
	CreateIntakeRequest(ctx context.Context, req *IntakeRequest) (*IntakeResult, error)
	Ping() error
	Name() string
}

type ROS interface {
	// OptimizeRoute computes the delivery route and ETA. Requires the
	// WMS tracking number.
	OptimizeRoute(ctx context.Context, req *RouteRequest) (*RouteResult, error)
	Ping() error
	Name() string
}

// --- CMS wire contract ---

type ValidationRequest struct {
	OrderID         int64   `json:"orderId"`
	ClientID        string  `json:"clientId"`
	TotalAmount     float64 `json:"totalAmount"`
	PaymentStatus   string  `json:"paymentStatus"`
	DeliveryAddress string  `json:"deliveryAddress"`
}

type ValidationResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ReferenceID string `json:"referenceId"`
	ContractID  string `json:"contractId"`
}

// --- WMS wire contract ---

type IntakeItem struct {
	Description  string  `json:"description"`
	Quantity     int     `json:"quantity"`
	Weight       float64 `json:"weight"`
	Value        float64 `json:"value"`
	Instructions string  `json:"instructions,omitempty"`
}

type IntakeRequest struct {
	OrderID        int64        `json:"orderId"`
	ClientID       string       `json:"clientId"`
	IdempotencyKey string       `json:"idempotencyKey"`
	PickupAddress  string       `json:"pickupAddress"`
	Priority       string       `json:"priority"`
	Items          []IntakeItem `json:"items"`
}

type IntakeResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ReferenceID    string `json:"referenceId"`
	TrackingNumber string `json:"trackingNumber"`
}

// --- ROS wire contract ---

type RouteRequest struct {
	OrderID         int64  `json:"orderId"`
	TrackingNumber  string `json:"trackingNumber"`
	PickupAddress   string `json:"pickupAddress"`
	DeliveryAddress string `json:"deliveryAddress"`
	Priority        string `json:"priority"`
}

type RouteResult struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	ReferenceID           string `json:"referenceId"`
	EstimatedDeliveryTime string `json:"estimatedDeliveryTime"`
}
