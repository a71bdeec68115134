package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// upstreamError carries the HTTP status the completion endpoint returned.
type upstreamError struct {
	status int
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("ai service error: %d", e.status)
}

// isRetryable classifies a completion failure. Transient transport and
// upstream conditions get one in-call retry; everything else fails straight
// through to the circuit breaker.
func isRetryable(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false, "decode_error"
	}

	if errors.Is(err, context.Canceled) {
		return false, "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true, "network_error"
	}

	var upErr *upstreamError
	if errors.As(err, &upErr) {
		if upErr.status == 429 || upErr.status >= 500 {
			return true, "upstream_unavailable"
		}
		return false, "upstream_rejected"
	}

	return false, "unknown_error"
}
