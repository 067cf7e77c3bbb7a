package check

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// EchoSize is the payload length of each echo request, matching the
// conventional ping(8) datagram.
const EchoSize = 56

// ErrTimeout is reported by a Prober when no reply arrived before the
// per-packet deadline.
var ErrTimeout = errors.New("request timeout")

// Prober performs one echo exchange against dst. seq correlates the reply
// with its request when the underlying socket is shared across calls, so
// callers must supply a distinct value per call; a 16 bit wrap over long
// endless runs is expected. The implementation enforces the deadline
// carried by ctx and reports ErrTimeout when it expires first.
type Prober interface {
	ProbeOnce(ctx context.Context, dst *net.IPAddr, seq uint16) (time.Duration, error)
}

// ResolutionError is terminal, the run is aborted before the probe loop
// starts and no alternate address or retry is attempted.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("DNS resolution failed: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
