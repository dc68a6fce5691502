package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInUs
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller
	Schedule(evt ScheduledEvent)
}

// An Engine is a unit that keeps the discrete event simulation running.
type Engine interface {
	Hookable
	EventScheduler

	// Run processes all the events until no event is left.
	Run() error

	// RunUntil processes all the events that happen strictly before the
	// given time and then moves the clock to that time.
	RunUntil(t VTimeInUs) error

	// Pause stops the engine from dispatching events until Continue is
	// called.
	Pause()

	// Continue resumes a paused engine.
	Continue()

	// PendingEvents returns the number of events that are still waiting to
	// be processed.
	PendingEvents() int
}
