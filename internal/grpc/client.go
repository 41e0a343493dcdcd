package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/LeJamon/goScalingd/internal/core/vm"
	"github.com/LeJamon/goScalingd/internal/host"
)

// Client calls a remote Server. It implements Backend.
type Client struct {
	conn    *grpc.ClientConn
	chainID string
}

// Dial connects to target and fetches the chain id. The connection is
// plaintext; put a TLS terminating proxy in front for remote use.
func Dial(ctx context.Context, target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	c := &Client{conn: conn}
	var info InfoResponse
	if err := c.invoke(ctx, "Info", &InfoRequest{}, &info); err != nil {
		conn.Close()
		return nil, err
	}
	c.chainID = info.ChainID
	return c, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}) error {
	var trailer metadata.MD
	err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, grpc.Trailer(&trailer))
	if err != nil {
		return fromStatus(err, trailer)
	}
	return nil
}

// ChainID returns the chain id reported when the client connected.
func (c *Client) ChainID() string { return c.chainID }

func (c *Client) Submit(ctx context.Context, env host.Envelope) (string, *vm.Response, error) {
	var out SubmitResponse
	if err := c.invoke(ctx, "Submit", &SubmitRequest{Envelope: env}, &out); err != nil {
		return "", nil, err
	}
	if out.Response == nil {
		out.Response = vm.NewResponse()
	}
	return out.Contract, out.Response, nil
}

func (c *Client) Query(ctx context.Context, contract string, msg []byte) ([]byte, error) {
	var out QueryResponse
	if err := c.invoke(ctx, "Query", &QueryRequest{Contract: contract, Msg: msg}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Outbox(ctx context.Context, from uint64, limit int) ([]host.OutboxEntry, error) {
	var out OutboxResponse
	if err := c.invoke(ctx, "Outbox", &OutboxRequest{From: from, Limit: limit}, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *Client) Height(ctx context.Context) (uint64, error) {
	var out InfoResponse
	if err := c.invoke(ctx, "Info", &InfoRequest{}, &out); err != nil {
		return 0, err
	}
	return out.Height, nil
}

func (c *Client) Sequence(ctx context.Context, addr string) (uint64, error) {
	var out SequenceResponse
	if err := c.invoke(ctx, "Sequence", &SequenceRequest{Address: addr}, &out); err != nil {
		return 0, err
	}
	return out.Sequence, nil
}

func (c *Client) Contract(ctx context.Context, addr string) (host.ContractMeta, error) {
	var out ContractResponse
	if err := c.invoke(ctx, "Contract", &ContractRequest{Address: addr}, &out); err != nil {
		return host.ContractMeta{}, err
	}
	return out.Meta, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
