package networking

import (
	"log"

	"github.com/ft4fttsim/ft4fttsim/sim"
)

// PortMsgLogger is a hook that writes one comma-separated line per message
// sent or received by a port: time, port, position, source, destination,
// type, size and id.
type PortMsgLogger struct {
	sim.LogHookBase
}

// NewPortMsgLogger returns a new PortMsgLogger which will write into the
// logger.
func NewPortMsgLogger(logger *log.Logger) *PortMsgLogger {
	return &PortMsgLogger{LogHookBase: sim.NewLogHookBase(logger, ",")}
}

// Func writes the message information into the logger.
func (h *PortMsgLogger) Func(ctx sim.HookCtx) {
	msg, ok := ctx.Item.(*Message)
	if !ok {
		return
	}

	port, ok := ctx.Domain.(*Port)
	if !ok {
		return
	}

	src := "<nil>"
	if msg.Source() != nil {
		src = msg.Source().Name()
	}

	h.LogAt(ctx.Now, port.Name(), ctx.Pos.Name, src, msg.Destination(),
		msg.Type(), msg.SizeBytes(), msg.ID())
}
