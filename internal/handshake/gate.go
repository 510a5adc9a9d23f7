package handshake

import (
	"encoding/json"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/config"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
)

// Message is one cross-window message as delivered by the host environment.
type Message struct {
	Origin string
	Data   json.RawMessage
}

// Gate decides whether an inbound message may start a handshake. It has no
// side effects.
type Gate struct {
	selfOrigin string
	allow      config.AllowList
}

// NewGate creates a gate for a window served from selfOrigin.
func NewGate(selfOrigin string, allow config.AllowList) *Gate {
	return &Gate{selfOrigin: selfOrigin, allow: allow}
}

// CheckOrigin accepts the window's own origin, any origin in allow-all mode,
// and origins listed explicitly.
func (g *Gate) CheckOrigin(origin string) error {
	if origin != "" && origin == g.selfOrigin {
		return nil
	}
	if g.allow.AllowAll || g.allow.Contains(origin) {
		return nil
	}
	return ErrOriginRejected
}

// CheckShape accepts a JSON object whose type is one of the recognised
// message kinds.
func (g *Gate) CheckShape(data []byte) (models.AuthPayload, error) {
	payload := models.ParseAuthPayload(data)
	if !payload.IsAccepted() {
		return nil, ErrShapeRejected
	}
	return payload, nil
}

// Admit runs the origin check and then the shape check.
func (g *Gate) Admit(msg Message) (models.AuthPayload, error) {
	if err := g.CheckOrigin(msg.Origin); err != nil {
		return nil, err
	}
	return g.CheckShape(msg.Data)
}
