package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/supplytrace/provenance/internal/core/domain"
)

// revertMarkers prefix the reason in node error messages (geth, ganache).
var revertMarkers = []string{"execution reverted: ", "revert "}

// revertReason extracts the contract's revert reason from an RPC error.
func revertReason(err error) (string, bool) {
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if reason, uerr := abi.UnpackRevert(common.FromHex(s)); uerr == nil {
				return reason, true
			}
		}
	}

	msg := err.Error()
	for _, m := range revertMarkers {
		if i := strings.Index(msg, m); i >= 0 {
			return strings.TrimSpace(msg[i+len(m):]), true
		}
	}
	if strings.Contains(msg, "execution reverted") {
		return "", true
	}
	return "", false
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// classify translates a raw RPC error into the ledger failure taxonomy.
func classify(method string, err error) error {
	if reason, ok := revertReason(err); ok {
		return &domain.RevertError{Method: method, Reason: reason}
	}
	if isTransport(err) {
		return fmt.Errorf("%s: %w: %w", method, domain.ErrNetworkUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %w", method, domain.ErrSubmissionRejected, err)
}
