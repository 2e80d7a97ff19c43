package partners

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WMSClient talks to the Warehouse Management System.
type WMSClient struct {
	*client
}

func NewWMSClient(baseURL string, timeout time.Duration) *WMSClient {
	return &WMSClient{client: newClient("wms", baseURL, timeout)}
}

func (c *WMSClient) CreateIntakeRequest(ctx context.Context, req *IntakeRequest) (*IntakeResult, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}
	var result IntakeResult
	if err := c.post(ctx, "/api/v1/intake", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *WMSClient) Ping() error  { return c.ping() }
func (c *WMSClient) Name() string { return "wms" }
