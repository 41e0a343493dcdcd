// Package grpc serves the contract host over gRPC and dials it back, so
// commands can reach a running scalingd without opening its store.
package grpc

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

const defaultMsgSize = 4 << 20

// ServerConfig is the listener side of the host API.
type ServerConfig struct {
	Address        string `mapstructure:"address"`
	MaxRecvMsgSize int    `mapstructure:"max_recv_msg_size"`
	MaxSendMsgSize int    `mapstructure:"max_send_msg_size"`
}

func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:        "127.0.0.1:50051",
		MaxRecvMsgSize: defaultMsgSize,
		MaxSendMsgSize: defaultMsgSize,
	}
}

// Validate reports every problem at once.
func (c *ServerConfig) Validate() error {
	var errs []error
	if _, port, err := net.SplitHostPort(c.Address); err != nil {
		errs = append(errs, fmt.Errorf("address %q: %w", c.Address, err))
	} else if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		errs = append(errs, fmt.Errorf("address %q: bad port %q", c.Address, port))
	}
	if c.MaxRecvMsgSize <= 0 {
		errs = append(errs, errors.New("max_recv_msg_size must be positive"))
	}
	if c.MaxSendMsgSize <= 0 {
		errs = append(errs, errors.New("max_send_msg_size must be positive"))
	}
	return errors.Join(errs...)
}
