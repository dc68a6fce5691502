package ft4ftt

import (
	"math"
	"slices"

	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// An FT4FTTSwitch is a switch with a master built in. The master hangs off
// an internal port through an infinitely fast link without propagation
// delay.
//
// Messages addressed to the master go to the internal port. Trigger
// messages are flooded to all the external ports. Other messages follow the
// forwarding table, restricted to the external ports.
type FT4FTTSwitch struct {
	*networking.Switch

	master       *Master
	internalPort *networking.Port
	internalLink *networking.Link
}

// Master returns the embedded master.
func (s *FT4FTTSwitch) Master() *Master {
	return s.master
}

// InternalPort returns the port the master is attached to.
func (s *FT4FTTSwitch) InternalPort() *networking.Port {
	return s.internalPort
}

// InternalLink returns the link between the switch and the master.
func (s *FT4FTTSwitch) InternalLink() *networking.Link {
	return s.internalLink
}

// ExternalPorts returns all the ports but the internal one.
func (s *FT4FTTSwitch) ExternalPorts() []*networking.Port {
	var ports []*networking.Port
	for _, p := range s.Ports() {
		if p != s.internalPort {
			ports = append(ports, p)
		}
	}

	return ports
}

// Route selects the output ports of a received message.
func (s *FT4FTTSwitch) Route(msg *networking.Message) []*networking.Port {
	dst := msg.Destination()

	var ports []*networking.Port
	if dst.Contains(s.master) {
		ports = append(ports, s.internalPort)
	}

	if msg.Type() == MessageTypeTrigger {
		return append(ports, s.ExternalPorts()...)
	}

	var others []networking.Device
	for _, d := range dst.Devices() {
		if d != networking.Device(s.master) {
			others = append(others, d)
		}
	}

	if len(others) == 0 {
		return ports
	}

	resolved := s.ResolvePorts(networking.Multicast(others...),
		s.ExternalPorts())
	for _, p := range resolved {
		if !slices.Contains(ports, p) {
			ports = append(ports, p)
		}
	}

	return ports
}

// FT4FTTSwitchBuilder creates FT4FTT switches.
type FT4FTTSwitchBuilder struct {
	engine   sim.EventScheduler
	numPorts int
	master   *Master
}

// MakeFT4FTTSwitchBuilder creates an FT4FTTSwitchBuilder with default
// parameters.
func MakeFT4FTTSwitchBuilder() FT4FTTSwitchBuilder {
	return FT4FTTSwitchBuilder{}
}

// WithEngine sets the engine the switch runs on.
func (b FT4FTTSwitchBuilder) WithEngine(
	engine sim.EventScheduler,
) FT4FTTSwitchBuilder {
	b.engine = engine
	return b
}

// WithNumPorts sets the number of external ports.
func (b FT4FTTSwitchBuilder) WithNumPorts(n int) FT4FTTSwitchBuilder {
	b.numPorts = n
	return b
}

// WithMaster sets the master to embed. The master must have exactly one
// port, which must not be linked yet.
func (b FT4FTTSwitchBuilder) WithMaster(m *Master) FT4FTTSwitchBuilder {
	b.master = m
	return b
}

// Build creates the switch and links the master to its internal port.
func (b FT4FTTSwitchBuilder) Build(name string) (*FT4FTTSwitch, error) {
	if b.master == nil {
		return nil, networking.NewError("FT4FTT switch %s needs a master",
			name)
	}

	if n := len(b.master.Ports()); n != 1 {
		return nil, networking.NewError(
			"the master of FT4FTT switch %s must have exactly 1 port, has %d",
			name, n)
	}

	sw, err := networking.MakeSwitchBuilder().
		WithEngine(b.engine).
		WithNumPorts(b.numPorts).
		Build(name)
	if err != nil {
		return nil, err
	}

	s := &FT4FTTSwitch{
		Switch: sw,
		master: b.master,
	}

	s.internalPort = sw.AddPort(name + "-internalport")
	s.internalLink, err = networking.NewLink(b.engine,
		s.internalPort, b.master.Port(0), math.Inf(1), 0)
	if err != nil {
		return nil, err
	}

	sw.SetRouter(s)

	return s, nil
}
