// Package vm defines what the host hands a contract on every call and what
// the contract hands back.
package vm

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/anypb"

	"github.com/LeJamon/goScalingd/internal/core/hub"
	"github.com/LeJamon/goScalingd/internal/core/state"
)

// BlockInfo describes the block a call executes in.
type BlockInfo struct {
	Height  uint64    `json:"height"`
	Time    time.Time `json:"time"`
	ChainID string    `json:"chain_id"`
}

// ContractInfo identifies the executing contract.
type ContractInfo struct {
	Address string `json:"address"`
}

// Env is the execution environment of a call.
type Env struct {
	Block    BlockInfo    `json:"block"`
	Contract ContractInfo `json:"contract"`
}

// MessageInfo carries the authenticated caller.
type MessageInfo struct {
	Sender string `json:"sender"`
}

// API exposes host helpers that are not storage.
type API interface {
	// AddrValidate checks an address and returns its canonical form.
	AddrValidate(addr string) (string, error)
}

// Deps bundles the collaborators of a call.
type Deps struct {
	Ctx     context.Context
	Storage state.View
	API     API
	Querier hub.Querier
}

// Attribute is a key/value pair attached to a Response.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the result of a successful state-changing call. Messages are
// instructions for the host to dispatch; they are not executed here.
type Response struct {
	Messages   []*anypb.Any `json:"messages,omitempty"`
	Attributes []Attribute  `json:"attributes,omitempty"`
}

// NewResponse returns an empty Response.
func NewResponse() *Response {
	return &Response{}
}

func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

func (r *Response) AddMessage(msg *anypb.Any) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}

// Attribute returns the first value stored under key.
func (r *Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Contract is the raw entry point surface a host drives. Messages are JSON.
type Contract interface {
	Instantiate(deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Execute(deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Query(deps Deps, env Env, msg []byte) ([]byte, error)
	Migrate(deps Deps, env Env, msg []byte) (*Response, error)
}
