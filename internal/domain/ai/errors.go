package ai

import (
	"errors"
	"fmt"
)

// ErrRateLimited indicates the gateway returned HTTP 429. Transient; the
// caller should back off and retry. No automatic retry is performed.
var ErrRateLimited = errors.New("ai gateway rate limited")

// ErrQuotaExceeded indicates the gateway returned HTTP 402. Fatal for this
// request until the operator adds capacity.
var ErrQuotaExceeded = errors.New("ai usage quota exceeded")

// ErrMalformedOutput indicates the model did not honor the forced schema or
// returned unparsable JSON / empty content.
var ErrMalformedOutput = errors.New("malformed model output")

// GatewayError is any other unexpected non-2xx response from the gateway.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ai gateway error (HTTP %d): %s", e.StatusCode, e.Message)
}
