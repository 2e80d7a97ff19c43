package partners

import (
	"context"
	"time"
)

// CMSClient talks to the Client Management System.
type CMSClient struct {
	*client
}

func NewCMSClient(baseURL string, timeout time.Duration) *CMSClient {
	return &CMSClient{client: newClient("cms", baseURL, timeout)}
}

func (c *CMSClient) ValidateOrder(ctx context.Context, req *ValidationRequest) (*ValidationResult, error) {
	var result ValidationResult
	if err := c.post(ctx, "/api/v1/orders/validate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *CMSClient) Ping() error  { return c.ping() }
func (c *CMSClient) Name() string { return "cms" }
