package networking

import (
	"fmt"

	"github.com/ft4fttsim/ft4fttsim/sim"
)

// HookPosSwitchForward marks when a switch forwards a message. The Detail of
// the hook context holds the output ports.
var HookPosSwitchForward = &sim.HookPos{Name: "Switch Forward"}

// A Router decides on which ports a received message leaves a switch.
type Router interface {
	Route(msg *Message) []*Port
}

// A Switch forwards every received message to the ports its router selects.
// Each output port gets its own copy of the message.
type Switch struct {
	*DeviceBase

	forwardingTable *ForwardingTable
	router          Router
}

// ForwardingTable returns the table used by the default router.
func (s *Switch) ForwardingTable() *ForwardingTable {
	return s.forwardingTable
}

// DefineRoute adds a forwarding table entry. All the ports must belong to the
// switch.
func (s *Switch) DefineRoute(dst Device, ports ...*Port) error {
	for _, p := range ports {
		if !s.OwnsPort(p) {
			return NewError("switch %s does not own port %s",
				s.Name(), p.Name())
		}
	}

	s.forwardingTable.DefineRoute(dst, ports...)

	return nil
}

// SetRouter replaces the router.
func (s *Switch) SetRouter(r Router) {
	s.router = r
}

// ResolvePorts returns the ports that lead to the destination according to
// the forwarding table. A device without an entry resolves to all the flood
// ports. For a multicast destination the result is the union over all the
// members. Ports are returned in switch port order.
func (s *Switch) ResolvePorts(dst Destination, floodPorts []*Port) []*Port {
	var union []*Port
	for _, dev := range dst.Devices() {
		ports, found := s.forwardingTable.FindPorts(dev)
		if !found {
			ports = floodPorts
		}

		for _, p := range ports {
			if !containsPort(union, p) {
				union = append(union, p)
			}
		}
	}

	var ordered []*Port
	for _, p := range s.ports {
		if containsPort(union, p) {
			ordered = append(ordered, p)
		}
	}

	return ordered
}

// ForwardMessages sends a copy of each message on every port the router
// selects.
func (s *Switch) ForwardMessages(msgs []*Message) {
	for _, msg := range msgs {
		ports := s.router.Route(msg)

		if s.NumHooks() > 0 {
			s.InvokeHook(sim.HookCtx{
				Domain: s,
				Now:    s.engine.CurrentTime(),
				Pos:    HookPosSwitchForward,
				Item:   msg,
				Detail: ports,
			})
		}

		for _, p := range ports {
			err := s.InstructTransmission(FromMessage(msg), p)
			if err != nil {
				panic(fmt.Sprintf("switch %s: %v", s.Name(), err))
			}
		}
	}
}

type tableRouter struct {
	sw *Switch
}

func (r tableRouter) Route(msg *Message) []*Port {
	return r.sw.ResolvePorts(msg.Destination(), r.sw.ports)
}

// SwitchBuilder creates switches.
type SwitchBuilder struct {
	engine   sim.EventScheduler
	numPorts int
}

// MakeSwitchBuilder creates a SwitchBuilder with default parameters.
func MakeSwitchBuilder() SwitchBuilder {
	return SwitchBuilder{}
}

// WithEngine sets the engine the switch runs on.
func (b SwitchBuilder) WithEngine(engine sim.EventScheduler) SwitchBuilder {
	b.engine = engine
	return b
}

// WithNumPorts sets the number of ports.
func (b SwitchBuilder) WithNumPorts(n int) SwitchBuilder {
	b.numPorts = n
	return b
}

// Build creates a switch that starts forwarding right away.
func (b SwitchBuilder) Build(name string) (*Switch, error) {
	if b.engine == nil {
		return nil, NewError("switch %s needs an engine", name)
	}

	if b.numPorts < 0 {
		return nil, NewError("switch %s cannot have %d ports",
			name, b.numPorts)
	}

	s := &Switch{
		forwardingTable: NewForwardingTable(),
	}
	s.DeviceBase = NewDeviceBase(name, b.engine, b.numPorts, s)
	s.router = tableRouter{sw: s}

	if err := s.ListenForMessages(s.ForwardMessages); err != nil {
		return nil, err
	}

	return s, nil
}
