package sim

// VTimeInUs defines the time in the simulated space in the unit of
// microseconds.
type VTimeInUs float64

// Handler processes events of various types.
//
// Events are plain data structs. Handlers use type switching to tell them
// apart:
//
//	func (h *MyHandler) Handle(event any) error {
//	    switch e := event.(type) {
//	    case *MyEvent:
//	        // handle MyEvent
//	    default:
//	        return fmt.Errorf("unknown event type: %T", event)
//	    }
//	    return nil
//	}
type Handler interface {
	Handle(event any) error
}

// ScheduledEvent is the engine-facing wrapper of a user-defined event.
type ScheduledEvent struct {
	// Event is the payload delivered to the handler, typically a pointer to a
	// struct owned by the handler.
	Event any

	// Time is when the event should be processed.
	Time VTimeInUs

	// Handler is the object that processes the event.
	Handler Handler

	// IsSecondary marks events that are processed after all the primary
	// events scheduled at the same time.
	IsSecondary bool
}

// HandlerFunc adapts an ordinary function into a Handler.
type HandlerFunc func(event any) error

// Handle calls f(event).
func (f HandlerFunc) Handle(event any) error {
	return f(event)
}
