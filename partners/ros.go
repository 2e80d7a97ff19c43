package partners

import (
	"context"
	"time"
)

// ROSClient talks to the Route Optimization System.
type ROSClient struct {
	*client
}

func NewROSClient(baseURL string, timeout time.Duration) *ROSClient {
	return &ROSClient{client: newClient("ros", baseURL, timeout)}
}

func (c *ROSClient) OptimizeRoute(ctx context.Context, req *RouteRequest) (*RouteResult, error) {
	var result RouteResult
	if err := c.post(ctx, "/api/v1/routes/optimize", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *ROSClient) Ping() error  { return c.ping() }
func (c *ROSClient) Name() string { return "ros" }
