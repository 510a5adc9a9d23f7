package handshake

import (
	"errors"
	"fmt"
)

var (
	ErrOriginRejected    = errors.New("message origin not allowed")
	ErrShapeRejected     = errors.New("message type not accepted")
	ErrHandshakeInFlight = errors.New("authentication already in flight")
	ErrUnauthorized      = errors.New("no autorizado – token no encontrado")
	ErrUnmounted         = errors.New("listener unmounted")
	ErrAlreadyMounted    = errors.New("listener already mounted")
	ErrExchangeTimeout   = errors.New("authentication timed out")
)

// maxBodyExcerpt bounds how much of an upstream error body is kept.
const maxBodyExcerpt = 512

// UpstreamError is returned when the login or probe endpoint answers with a
// non-success status.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s HTTP %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s HTTP %d %s", e.Endpoint, e.Status, e.Body)
}
