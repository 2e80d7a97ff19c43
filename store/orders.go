package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Order statuses. The ledger itself does not validate transitions;
// callers are responsible for only requesting legal moves.
const (
	StatusPending         = "pending"
	StatusProcessing      = "processing"
	StatusPickupScheduled = "pickup_scheduled"
	StatusInTransit       = "in_transit"
	StatusOutForDelivery  = "out_for_delivery"
	StatusDelivered       = "delivered"
	StatusFailed          = "failed"
	StatusCancelled       = "cancelled"
)

// Actor kinds recorded on status transitions.
const (
	ActorSystem = "system"
	ActorClient = "client"
	ActorDriver = "driver"
	ActorAdmin  = "admin"
)

// TerminalStatus reports whether a status admits no further transitions.
func TerminalStatus(status string) bool {
	return status == StatusDelivered || status == StatusFailed || status == StatusCancelled
}

type Order struct {
	ID                int64     `json:"id"`
	ClientID          string    `json:"client_id"`
	RecipientName     string    `json:"recipient_name"`
	RecipientPhone    string    `json:"recipient_phone"`
	PickupAddress     string    `json:"pickup_address"`
	DeliveryAddress   string    `json:"delivery_address"`
	Priority          string    `json:"priority"`
	Status            string    `json:"status"`
	CMSReference      string    `json:"cms_reference"`
	ContractID        string    `json:"contract_id"`
	WMSReference      string    `json:"wms_reference"`
	TrackingNumber    string    `json:"tracking_number"`
	ROSReference      string    `json:"ros_reference"`
	EstimatedDelivery string    `json:"estimated_delivery"`
	TotalAmount       float64   `json:"total_amount"`
	PaymentStatus     string    `json:"payment_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	Description  string  `json:"description"`
	Quantity     int     `json:"quantity"`
	Weight       float64 `json:"weight"`
	Value        float64 `json:"value"`
	Instructions string  `json:"instructions"`
}

// StatusTransition is one append-only history row. Never updated or deleted.
type StatusTransition struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	ActorID   string    `json:"actor_id"`
	ActorKind string    `json:"actor_kind"`
	CreatedAt time.Time `json:"created_at"`
}

// NotFoundError indicates the order does not exist. Not retryable.
type NotFoundError struct {
	OrderID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %d not found", e.OrderID)
}

const orderSelectCols = `id, client_id, recipient_name, recipient_phone, pickup_address, delivery_address, priority, status, cms_reference, contract_id, wms_reference, tracking_number, ros_reference, estimated_delivery, total_amount, payment_status, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var createdAt, updatedAt any

	err := row.Scan(&o.ID, &o.ClientID, &o.RecipientName, &o.RecipientPhone,
		&o.PickupAddress, &o.DeliveryAddress, &o.Priority, &o.Status,
		&o.CMSReference, &o.ContractID, &o.WMSReference, &o.TrackingNumber,
		&o.ROSReference, &o.EstimatedDelivery, &o.TotalAmount, &o.PaymentStatus,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (db *DB) CreateOrder(o *Order) error {
	if o.Priority == "" {
		o.Priority = "medium"
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = "unpaid"
	}
	row := db.QueryRow(db.Q(`INSERT INTO orders (client_id, recipient_name, recipient_phone, pickup_address, delivery_address, priority, status, total_amount, payment_status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		o.ClientID, o.RecipientName, o.RecipientPhone, o.PickupAddress, o.DeliveryAddress,
		o.Priority, o.Status, o.TotalAmount, o.PaymentStatus)
	if err := row.Scan(&o.ID); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (db *DB) AddOrderItem(item *OrderItem) error {
	row := db.QueryRow(db.Q(`INSERT INTO order_items (order_id, description, quantity, weight, value, instructions) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		item.OrderID, item.Description, item.Quantity, item.Weight, item.Value, item.Instructions)
	if err := row.Scan(&item.ID); err != nil {
		return fmt.Errorf("add order item: %w", err)
	}
	return nil
}

func (db *DB) GetOrder(id int64) (*Order, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE id=?`, orderSelectCols)), id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{OrderID: id}
	}
	return o, err
}

func (db *DB) GetOrderByTracking(trackingNumber string) (*Order, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE tracking_number=? LIMIT 1`, orderSelectCols)), trackingNumber)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{}
	}
	return o, err
}

func (db *DB) OrderItems(orderID int64) ([]*OrderItem, error) {
	rows, err := db.Query(db.Q(`SELECT id, order_id, description, quantity, weight, value, instructions FROM order_items WHERE order_id=? ORDER BY id`), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Description, &it.Quantity, &it.Weight, &it.Value, &it.Instructions); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// UpdateStatus sets the order's status and appends the matching history
// row in a single transaction. The order row and its newest history row
// can never disagree; a failure of either statement rolls back both.
// Returns the previous and new status.
func (db *DB) UpdateStatus(id int64, status, note, actorID, actorKind string) (oldStatus, newStatus string, err error) {
	tx, err := db.Begin()
	if err != nil {
		return "", "", fmt.Errorf("update status begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(db.Q(`SELECT status FROM orders WHERE id=?`), id).Scan(&oldStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", &NotFoundError{OrderID: id}
	}
	if err != nil {
		return "", "", fmt.Errorf("update status read: %w", err)
	}

	if _, err = tx.Exec(db.Q(`UPDATE orders SET status=?, updated_at=datetime('now','localtime') WHERE id=?`), status, id); err != nil {
		return "", "", fmt.Errorf("update status: %w", err)
	}
	if _, err = tx.Exec(db.Q(`INSERT INTO order_status_history (order_id, status, note, actor_id, actor_kind) VALUES (?, ?, ?, ?, ?)`),
		id, status, note, actorID, actorKind); err != nil {
		return "", "", fmt.Errorf("insert status history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", "", fmt.Errorf("update status commit: %w", err)
	}
	return oldStatus, status, nil
}

// Reference backfills. These are the one sanctioned direct field write:
// the orchestrator persists external references immediately after each
// successful integration call, outside the status transition primitive.

func (db *DB) SetCMSResult(id int64, cmsReference, contractID string) error {
	_, err := db.Exec(db.Q(`UPDATE orders SET cms_reference=?, contract_id=?, updated_at=datetime('now','localtime') WHERE id=?`),
		cmsReference, contractID, id)
	return err
}

func (db *DB) SetWMSResult(id int64, wmsReference, trackingNumber string) error {
	_, err := db.Exec(db.Q(`UPDATE orders SET wms_reference=?, tracking_number=?, updated_at=datetime('now','localtime') WHERE id=?`),
		wmsReference, trackingNumber, id)
	return err
}

func (db *DB) SetROSResult(id int64, rosReference, estimatedDelivery string) error {
	_, err := db.Exec(db.Q(`UPDATE orders SET ros_reference=?, estimated_delivery=?, updated_at=datetime('now','localtime') WHERE id=?`),
		rosReference, estimatedDelivery, id)
	return err
}

func (db *DB) ListTransitions(orderID int64) ([]*StatusTransition, error) {
	rows, err := db.Query(db.Q(`SELECT id, order_id, status, note, actor_id, actor_kind, created_at FROM order_status_history WHERE order_id=? ORDER BY id`), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var transitions []*StatusTransition
	for rows.Next() {
		var t StatusTransition
		var createdAt any
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Status, &t.Note, &t.ActorID, &t.ActorKind, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		transitions = append(transitions, &t)
	}
	return transitions, rows.Err()
}

// CountTransitions counts history rows for an order with the given status.
// The reconciler uses it to recover an attempt number after a restart.
func (db *DB) CountTransitions(orderID int64, status string) (int, error) {
	var n int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM order_status_history WHERE order_id=? AND status=?`), orderID, status).Scan(&n)
	return n, err
}

func (db *DB) ListOrders(status string, limit int) ([]*Order, error) {
	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE status=? ORDER BY id DESC LIMIT ?`, orderSelectCols)), status, limit)
	} else {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders ORDER BY id DESC LIMIT ?`, orderSelectCols)), limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListStaleProcessing returns orders sitting in `processing` since before
// the cutoff. After a restart these are the orders whose in-flight attempt
// died; the reconciler decides whether to retry or fail them.
func (db *DB) ListStaleProcessing(cutoff time.Time) ([]*Order, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM orders WHERE status=? AND updated_at < ? ORDER BY id`, orderSelectCols)),
		StatusProcessing, cutoff.Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}
