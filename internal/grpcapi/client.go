package grpcapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/af-corp/textguard/internal/moderation"
)

// Client calls a remote moderation service.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// Dial connects to addr. Extra options are appended after the defaults.
func Dial(addr string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("moderation service dial: %w", err)
	}
	slog.Debug("moderation service client created", "address", addr)
	return &Client{conn: conn, timeout: timeout}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, text string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.conn.Invoke(ctx, "/"+serviceName+"/"+method, &TextRequest{Text: text}, out)
}

func (c *Client) Filter(ctx context.Context, text string) (*FilterResponse, error) {
	out := new(FilterResponse)
	if err := c.invoke(ctx, "Filter", text, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) IsUnclear(ctx context.Context, text string) (bool, error) {
	out := new(UnclearResponse)
	if err := c.invoke(ctx, "IsUnclear", text, out); err != nil {
		return false, err
	}
	return out.Unclear, nil
}

func (c *Client) Report(ctx context.Context, text string) (*moderation.Report, error) {
	out := new(moderation.Report)
	if err := c.invoke(ctx, "Report", text, out); err != nil {
		return nil, err
	}
	return out, nil
}
