package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/LeJamon/goScalingd/internal/core/contract"
	"github.com/LeJamon/goScalingd/internal/core/hub"
	"github.com/LeJamon/goScalingd/internal/core/scaling"
	"github.com/LeJamon/goScalingd/internal/core/version"
	"github.com/LeJamon/goScalingd/internal/host"
)

// errorTrailer names the sentinel behind a failed call.
const errorTrailer = "scalingd-error"

// sentinels are matched in order; the first hit names the error.
var sentinels = []struct {
	name string
	err  error
	code codes.Code
}{
	{"contract_not_found", host.ErrContractNotFound, codes.NotFound},
	{"contract_exists", host.ErrContractExists, codes.AlreadyExists},
	{"not_admin", host.ErrNotAdmin, codes.PermissionDenied},
	{"invalid_sender", host.ErrInvalidSender, codes.InvalidArgument},
	{"invalid_envelope", host.ErrInvalidEnvelope, codes.InvalidArgument},
	{"rejected_message", host.ErrRejectedMessage, codes.FailedPrecondition},
	{"host_closed", host.ErrClosed, codes.Unavailable},
	{"wrong_contract", version.ErrWrongContract, codes.FailedPrecondition},
	{"invalid_msg", contract.ErrInvalidMsg, codes.InvalidArgument},
	{"validation", contract.ErrValidation, codes.InvalidArgument},
	{"overflow", scaling.ErrOverflow, codes.OutOfRange},
	{"unauthorized", contract.ErrUnauthorized, codes.PermissionDenied},
	{"not_supported", contract.ErrNotSupported, codes.Unimplemented},
	{"external_query", contract.ErrExternalQuery, codes.Unavailable},
	{"hub_query_failed", hub.ErrQueryFailed, codes.Unavailable},
	{"hub_malformed_response", hub.ErrMalformedResponse, codes.Unavailable},
}

// toStatus converts a backend error into a status and records the sentinel
// name in the trailer.
func toStatus(ctx context.Context, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			_ = grpc.SetTrailer(ctx, metadata.Pairs(errorTrailer, s.name))
			return status.Error(s.code, err.Error())
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// RemoteError is a failed call as seen by a Client. It unwraps to the
// sentinel the server matched, so errors.Is and contract.Kind behave as
// they do locally.
type RemoteError struct {
	Code     codes.Code
	Message  string
	sentinel error
}

func (e *RemoteError) Error() string { return e.Message }
func (e *RemoteError) Unwrap() error { return e.sentinel }

// fromStatus rebuilds the error a server sent.
func fromStatus(err error, trailer metadata.MD) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	remote := &RemoteError{Code: st.Code(), Message: st.Message()}
	if names := trailer.Get(errorTrailer); len(names) > 0 {
		for _, s := range sentinels {
			if s.name == names[0] {
				remote.sentinel = s.err
				break
			}
		}
	}
	if remote.sentinel == nil {
		switch st.Code() {
		case codes.DeadlineExceeded:
			remote.sentinel = context.DeadlineExceeded
		case codes.Canceled:
			remote.sentinel = context.Canceled
		}
	}
	return remote
}
