package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

var sentinels = []error{
	interfaces.ErrIdentityUnavailable,
	interfaces.ErrCredentialStoreUnavailable,
	interfaces.ErrNetworkUnavailable,
	interfaces.ErrChannelNotFound,
	interfaces.ErrContractNotFound,
	interfaces.ErrUnknownOperation,
	interfaces.ErrArityMismatch,
	interfaces.ErrMalformedLedgerResponse,
	interfaces.ErrTimeout,
	interfaces.ErrTransactionRejected,
	interfaces.ErrRecordNotFound,
}

// Classify wraps err with the taxonomy sentinel it belongs to. Errors that
// already carry a sentinel are returned unchanged; errors that match nothing are
// wrapped with fallback.
func Classify(err error, fallback error) error {
	if err == nil {
		return nil
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err
		}
	}

	sentinel := classify(err)
	if sentinel == nil {
		sentinel = fallback
	}
	if sentinel == nil {
		return err
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return interfaces.ErrTimeout
	}

	if s, ok := status.FromError(err); ok {
		if sentinel := fromSDKStatus(s); sentinel != nil {
			return sentinel
		}
	}

	if s, ok := grpcstatus.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable:
			return interfaces.ErrNetworkUnavailable
		case codes.DeadlineExceeded:
			return interfaces.ErrTimeout
		}
	}

	return fromMessage(err.Error())
}

func fromSDKStatus(s *status.Status) error {
	// server-side groups carry peer or chaincode response codes
	switch s.Group {
	case status.EndorserServerStatus, status.ChaincodeStatus, status.OrdererServerStatus:
		if sentinel := fromMessage(s.Message); sentinel != nil {
			return sentinel
		}
		return interfaces.ErrTransactionRejected
	}

	switch s.Code {
	case int32(status.Timeout):
		return interfaces.ErrTimeout
	case int32(status.ConnectionFailed), int32(status.NoPeersFound):
		return interfaces.ErrNetworkUnavailable
	case int32(status.ChaincodeNameNotFound):
		return interfaces.ErrContractNotFound
	}
	return nil
}

func fromMessage(msg string) error {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "diver not found"):
		return interfaces.ErrRecordNotFound
	case strings.Contains(msg, "chaincode") && strings.Contains(msg, "not found"),
		strings.Contains(msg, "could not find chaincode"),
		strings.Contains(msg, "make sure the chaincode"):
		return interfaces.ErrContractNotFound
	case strings.Contains(msg, "channel") && (strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")),
		strings.Contains(msg, "failed to create new channel context"):
		return interfaces.ErrChannelNotFound
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection failed"),
		strings.Contains(msg, "failed to connect"):
		return interfaces.ErrNetworkUnavailable
	}
	return nil
}
