package networking

import (
	"fmt"

	"github.com/ft4fttsim/ft4fttsim/sim"
)

// A Device is a node of the network that owns ports.
type Device interface {
	sim.Component

	// Ports returns the ports of the device in index order.
	Ports() []*Port

	// Port returns the i-th port.
	Port(i int) *Port
}

// DeviceBase implements the behavior shared by all network devices: port
// ownership, transmission through a port and multiplexed reception over all
// ports.
type DeviceBase struct {
	*sim.HookableBase

	name     string
	owner    Device
	engine   sim.EventScheduler
	ports    []*Port
	outlinks []*Sublink
	inlinks  []*Sublink
	listener *receptionListener
}

// NewDeviceBase creates a DeviceBase with numPorts ports named
// "<name>-port<i>". The owner is the device that embeds the base and is the
// identity used in message addresses. A nil owner makes the base its own
// owner.
func NewDeviceBase(
	name string,
	engine sim.EventScheduler,
	numPorts int,
	owner Device,
) *DeviceBase {
	if numPorts < 0 {
		panic(fmt.Sprintf("device %s cannot have %d ports", name, numPorts))
	}

	d := &DeviceBase{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		owner:        owner,
		engine:       engine,
	}

	if d.owner == nil {
		d.owner = d
	}

	for i := 0; i < numPorts; i++ {
		d.AddPort(fmt.Sprintf("%s-port%d", name, i))
	}

	return d
}

// Name returns the name of the device.
func (d *DeviceBase) Name() string {
	return d.name
}

// Engine returns the scheduler the device runs on.
func (d *DeviceBase) Engine() sim.EventScheduler {
	return d.engine
}

// Ports returns the ports of the device in index order.
func (d *DeviceBase) Ports() []*Port {
	return append([]*Port(nil), d.ports...)
}

// Port returns the i-th port.
func (d *DeviceBase) Port(i int) *Port {
	if i < 0 || i >= len(d.ports) {
		panic(fmt.Sprintf("device %s has no port %d", d.name, i))
	}

	return d.ports[i]
}

// AddPort appends a port with the given name. If the device is already
// listening, the new port is listened to as well.
func (d *DeviceBase) AddPort(name string) *Port {
	p := newPort(d, name)
	d.ports = append(d.ports, p)

	if d.listener != nil {
		d.listener.arm(p)
	}

	return p
}

// OwnsPort tells if the port belongs to the device.
func (d *DeviceBase) OwnsPort(p *Port) bool {
	return p != nil && p.device == d
}

// ConnectOutlink records a sublink that transmits from one of the device's
// ports.
func (d *DeviceBase) ConnectOutlink(s *Sublink) {
	if !d.OwnsPort(s.Transmitter()) {
		panic(fmt.Sprintf("sublink %s does not start at device %s",
			s.Name(), d.name))
	}

	d.outlinks = append(d.outlinks, s)
}

// ConnectInlink records a sublink that delivers to one of the device's
// ports.
func (d *DeviceBase) ConnectInlink(s *Sublink) {
	if !d.OwnsPort(s.Receiver()) {
		panic(fmt.Sprintf("sublink %s does not end at device %s",
			s.Name(), d.name))
	}

	d.inlinks = append(d.inlinks, s)
}

// Outlinks returns the sublinks leaving the device.
func (d *DeviceBase) Outlinks() []*Sublink {
	return append([]*Sublink(nil), d.outlinks...)
}

// Inlinks returns the sublinks arriving at the device.
func (d *DeviceBase) Inlinks() []*Sublink {
	return append([]*Sublink(nil), d.inlinks...)
}

// InstructTransmission hands the message to the port. If the port already
// holds a message waiting for the link, the new one waits its turn.
func (d *DeviceBase) InstructTransmission(msg *Message, port *Port) error {
	if msg == nil {
		return NewError("device %s cannot transmit a nil message", d.name)
	}

	if !d.OwnsPort(port) {
		portName := "<nil>"
		if port != nil {
			portName = port.Name()
		}

		return NewError("device %s does not own port %s", d.name, portName)
	}

	port.send(msg)

	return nil
}

// ListenForMessages starts the reception loop. The callback receives all the
// messages that arrived at the same simulated time, in port order. A device
// can only listen once.
func (d *DeviceBase) ListenForMessages(callback func(msgs []*Message)) error {
	if d.listener != nil {
		return NewError("device %s is already listening", d.name)
	}

	d.listener = &receptionListener{
		device:      d,
		callback:    callback,
		outstanding: make(map[*Port]*sim.GetRequest),
	}

	for _, p := range d.ports {
		d.listener.arm(p)
	}

	return nil
}

// IsListening tells if the reception loop has been started.
func (d *DeviceBase) IsListening() bool {
	return d.listener != nil
}

type collectReceptionsEvent struct{}

// receptionListener keeps exactly one pending get per inbound queue. Gets
// completing at the same time are collected by a single secondary event, so
// that every delivery of that instant is part of the batch.
type receptionListener struct {
	device         *DeviceBase
	callback       func(msgs []*Message)
	outstanding    map[*Port]*sim.GetRequest
	collectPending bool
}

func (l *receptionListener) Name() string {
	return l.device.name
}

func (l *receptionListener) Handle(event any) error {
	switch event.(type) {
	case *collectReceptionsEvent:
		l.collect()
	default:
		return fmt.Errorf("device %s cannot handle %T", l.device.name, event)
	}

	return nil
}

func (l *receptionListener) arm(p *Port) {
	if _, found := l.outstanding[p]; found {
		panic(fmt.Sprintf("port %s already has a pending get", p.Name()))
	}

	l.outstanding[p] = p.inbound.Get(l.onReceived)
}

func (l *receptionListener) onReceived(*sim.GetRequest) {
	if l.collectPending {
		return
	}

	l.collectPending = true
	l.device.engine.Schedule(sim.ScheduledEvent{
		Event:       &collectReceptionsEvent{},
		Time:        l.device.engine.CurrentTime(),
		Handler:     l,
		IsSecondary: true,
	})
}

func (l *receptionListener) collect() {
	l.collectPending = false
	l.mustCoverAllPorts()

	var msgs []*Message
	var completed []*Port

	for _, p := range l.device.ports {
		req := l.outstanding[p]
		if !req.Done() {
			continue
		}

		msgs = append(msgs, req.Item().(*Message))
		completed = append(completed, p)
		delete(l.outstanding, p)
	}

	if len(msgs) > 0 && l.callback != nil {
		l.callback(msgs)
	}

	for _, p := range completed {
		l.arm(p)
	}

	l.mustCoverAllPorts()
}

func (l *receptionListener) mustCoverAllPorts() {
	if len(l.outstanding) != len(l.device.ports) {
		panic(fmt.Sprintf("device %s listens to %d queues but has %d ports",
			l.device.name, len(l.outstanding), len(l.device.ports)))
	}

	for _, p := range l.device.ports {
		if _, found := l.outstanding[p]; !found {
			panic(fmt.Sprintf("device %s does not listen to port %s",
				l.device.name, p.Name()))
		}
	}
}
