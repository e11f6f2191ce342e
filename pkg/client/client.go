package client

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// the holder never registered the name
var ErrUnknownLock = errors.New("lock not tracked by holder")

// asks a padlock holder process which locks it holds
type Client struct {
	addr   string
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// addr is a grpc target such as unix:/run/padlock.sock
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &Client{
		addr:   addr,
		conn:   conn,
		health: healthpb.NewHealthClient(conn),
	}, nil
}

// reports whether the holder currently holds name
func (c *Client) Held(ctx context.Context, name string) (bool, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, fmt.Errorf("%w: %q", ErrUnknownLock, name)
		}
		return false, fmt.Errorf("health check: %w", err)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// reports whether the holder process itself is up
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Held(ctx, "")
	return err
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
