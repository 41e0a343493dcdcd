package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/LeJamon/goScalingd/internal/core/vm"
	"github.com/LeJamon/goScalingd/internal/host"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "scalingd.v1.Host"

// Backend is what the service exposes. *host.Host and *Client implement it.
type Backend interface {
	ChainID() string
	Submit(ctx context.Context, env host.Envelope) (string, *vm.Response, error)
	Query(ctx context.Context, contract string, msg []byte) ([]byte, error)
	Outbox(ctx context.Context, from uint64, limit int) ([]host.OutboxEntry, error)
	Height(ctx context.Context) (uint64, error)
	Sequence(ctx context.Context, addr string) (uint64, error)
	Contract(ctx context.Context, addr string) (host.ContractMeta, error)
}

type InfoRequest struct{}

type InfoResponse struct {
	ChainID string `json:"chain_id"`
	Height  uint64 `json:"height"`
}

type SubmitRequest struct {
	Envelope host.Envelope `json:"envelope"`
}

type SubmitResponse struct {
	Contract string       `json:"contract"`
	Response *vm.Response `json:"response"`
}

type QueryRequest struct {
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
}

type QueryResponse struct {
	Data json.RawMessage `json:"data"`
}

type OutboxRequest struct {
	From  uint64 `json:"from"`
	Limit int    `json:"limit"`
}

type OutboxResponse struct {
	Entries []host.OutboxEntry `json:"entries"`
}

type SequenceRequest struct {
	Address string `json:"address"`
}

type SequenceResponse struct {
	Sequence uint64 `json:"sequence"`
}

type ContractRequest struct {
	Address string `json:"address"`
}

type ContractResponse struct {
	Meta host.ContractMeta `json:"meta"`
}

// hostService adapts a Backend to the method handlers below.
type hostService interface {
	info(ctx context.Context, in *InfoRequest) (*InfoResponse, error)
	submit(ctx context.Context, in *SubmitRequest) (*SubmitResponse, error)
	query(ctx context.Context, in *QueryRequest) (*QueryResponse, error)
	outbox(ctx context.Context, in *OutboxRequest) (*OutboxResponse, error)
	sequence(ctx context.Context, in *SequenceRequest) (*SequenceResponse, error)
	contract(ctx context.Context, in *ContractRequest) (*ContractResponse, error)
}

type service struct {
	backend Backend
}

func (s *service) info(ctx context.Context, _ *InfoRequest) (*InfoResponse, error) {
	height, err := s.backend.Height(ctx)
	if err != nil {
		return nil, err
	}
	return &InfoResponse{ChainID: s.backend.ChainID(), Height: height}, nil
}

func (s *service) submit(ctx context.Context, in *SubmitRequest) (*SubmitResponse, error) {
	addr, res, err := s.backend.Submit(ctx, in.Envelope)
	if err != nil {
		return nil, err
	}
	return &SubmitResponse{Contract: addr, Response: res}, nil
}

func (s *service) query(ctx context.Context, in *QueryRequest) (*QueryResponse, error) {
	data, err := s.backend.Query(ctx, in.Contract, in.Msg)
	if err != nil {
		return nil, err
	}
	return &QueryResponse{Data: data}, nil
}

func (s *service) outbox(ctx context.Context, in *OutboxRequest) (*OutboxResponse, error) {
	entries, err := s.backend.Outbox(ctx, in.From, in.Limit)
	if err != nil {
		return nil, err
	}
	return &OutboxResponse{Entries: entries}, nil
}

func (s *service) sequence(ctx context.Context, in *SequenceRequest) (*SequenceResponse, error) {
	seq, err := s.backend.Sequence(ctx, in.Address)
	if err != nil {
		return nil, err
	}
	return &SequenceResponse{Sequence: seq}, nil
}

func (s *service) contract(ctx context.Context, in *ContractRequest) (*ContractResponse, error) {
	meta, err := s.backend.Contract(ctx, in.Address)
	if err != nil {
		return nil, err
	}
	return &ContractResponse{Meta: meta}, nil
}

// unary builds a MethodDesc handler for one method. Errors leave through
// toStatus so clients can recover the sentinel.
func unary[Req, Resp any](method string, call func(hostService, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				out, err := call(srv.(hostService), ctx, req.(*Req))
				if err != nil {
					return nil, toStatus(ctx, err)
				}
				return out, nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*hostService)(nil),
	Methods: []grpc.MethodDesc{
		unary("Info", hostService.info),
		unary("Submit", hostService.submit),
		unary("Query", hostService.query),
		unary("Outbox", hostService.outbox),
		unary("Sequence", hostService.sequence),
		unary("Contract", hostService.contract),
	},
	Metadata: "scalingd/v1/host.proto",
}
