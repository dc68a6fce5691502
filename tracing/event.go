// Package tracing records what happens on ports, sublinks, switches and
// masters into a trace that can be inspected after the simulation.
package tracing

import (
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// An Event is one row of a trace.
type Event struct {
	Time     sim.VTimeInUs
	Location string
	What     string

	// Message fields are empty when the event is not about a message.
	MsgID       uint64
	Source      string
	Destination string
	MsgType     string
	SizeBytes   int

	// Detail holds extra information, such as the EC number or the ports a
	// switch forwards to.
	Detail string
}

// An EventWriter stores trace events.
type EventWriter interface {
	Init()
	Write(event Event)
	Flush()
}

// EventQuery selects events from a trace. Zero fields do not filter.
type EventQuery struct {
	Location string
	What     string
	MsgID    uint64

	EnableTimeRange bool
	StartTime       sim.VTimeInUs
	EndTime         sim.VTimeInUs
}
