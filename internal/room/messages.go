package room

import (
	"github.com/starfall-gg/starfall-backend/internal/engine"
	"github.com/starfall-gg/starfall-backend/internal/protocol"
)

type Msg interface{ isRoomMsg() }

// Connect registers a websocket session with the room. The room owns
// the outbox from this point on and closes it when the session is
// dropped or the room shuts down.
type Connect struct {
	ConnID string
	Outbox chan []byte
}

func (Connect) isRoomMsg() {}

type Disconnect struct{ ConnID string }

func (Disconnect) isRoomMsg() {}

// FromClient carries one decoded client message from a session.
type FromClient struct {
	ConnID string
	Msg    protocol.ClientMessage
}

func (FromClient) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// GetView reflects internal state without data races.
type GetView struct {
	Reply chan View
}

func (GetView) isRoomMsg() {}

type View struct {
	NumConns int
	State    *engine.Serialized
}
