package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that prints every event before it is handled.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new EventLogger which will write into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{LogHookBase: NewLogHookBase(logger, ", ")}
}

// Func writes the event type and its handler into the logger.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*ScheduledEvent)
	if !ok {
		return
	}

	what := reflect.TypeOf(evt.Event).String()
	if named, ok := evt.Handler.(Named); ok {
		what += " -> " + named.Name()
	}

	h.LogAt(evt.Time, what)
}
