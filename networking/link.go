package networking

import (
	"fmt"
	"math"

	"github.com/ft4fttsim/ft4fttsim/ethernet"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// HookPosSublinkTxStart marks when a sublink starts putting a message on the
// wire.
var HookPosSublinkTxStart = &sim.HookPos{Name: "Sublink Tx Start"}

// HookPosSublinkDeliver marks when a sublink delivers a message to the
// receiving port.
var HookPosSublinkDeliver = &sim.HookPos{Name: "Sublink Deliver"}

// SublinkState is the stage a sublink is in.
type SublinkState int

// The stages of a sublink.
const (
	SublinkIdle SublinkState = iota
	SublinkInFlight
	SublinkDelivering
	SublinkGapWait
)

func (s SublinkState) String() string {
	switch s {
	case SublinkIdle:
		return "Idle"
	case SublinkInFlight:
		return "InFlight"
	case SublinkDelivering:
		return "Delivering"
	case SublinkGapWait:
		return "GapWait"
	default:
		return fmt.Sprintf("SublinkState(%d)", int(s))
	}
}

// A Link is a full-duplex cable between two ports. It is made of two
// independent sublinks, one per direction.
type Link struct {
	name               string
	mbps               float64
	propagationDelayUs float64
	sublinks           [2]*Sublink
}

// NewLink connects two free ports. Sublinks()[0] carries messages from port1
// to port2 and Sublinks()[1] the other way around.
//
// The speed must be positive and may be infinite. The propagation delay must
// not be negative.
func NewLink(
	engine sim.EventScheduler,
	port1, port2 *Port,
	mbps float64,
	propagationDelayUs float64,
) (*Link, error) {
	switch {
	case engine == nil:
		return nil, NewError("link needs an engine")
	case port1 == nil || port2 == nil:
		return nil, NewError("link needs two ports")
	case math.IsNaN(mbps) || mbps <= 0:
		return nil, NewError("link speed must be positive, got %v Mbps", mbps)
	case math.IsNaN(propagationDelayUs) || propagationDelayUs < 0:
		return nil, NewError(
			"propagation delay must not be negative, got %v us",
			propagationDelayUs)
	case port1 == port2:
		return nil, NewError("cannot link port %s to itself", port1.Name())
	case !port1.IsFree():
		return nil, NewError("port %s is already linked", port1.Name())
	case !port2.IsFree():
		return nil, NewError("port %s is already linked", port2.Name())
	}

	l := &Link{
		name:               port1.Name() + "<->" + port2.Name(),
		mbps:               mbps,
		propagationDelayUs: propagationDelayUs,
	}

	l.sublinks[0] = newSublink(engine, l, port1, port2)
	l.sublinks[1] = newSublink(engine, l, port2, port1)

	port1.link = l
	port2.link = l

	for _, s := range l.sublinks {
		s.transmitter.device.ConnectOutlink(s)
		s.receiver.device.ConnectInlink(s)
		s.waitForMessage()
	}

	return l, nil
}

// Name returns the name of the link.
func (l *Link) Name() string {
	return l.name
}

// Sublinks returns both directions of the link.
func (l *Link) Sublinks() [2]*Sublink {
	return l.sublinks
}

// MegabitsPerSecond returns the link speed.
func (l *Link) MegabitsPerSecond() float64 {
	return l.mbps
}

// PropagationDelayUs returns the propagation delay.
func (l *Link) PropagationDelayUs() float64 {
	return l.propagationDelayUs
}

// TransmissionTimeUs returns the time needed to serialize numBytes on the
// link.
func (l *Link) TransmissionTimeUs(numBytes int) float64 {
	return ethernet.TransmissionTimeUs(numBytes, l.mbps)
}

type deliveryEvent struct {
	msg *Message
}

type gapEndEvent struct{}

// A Sublink moves messages from the outbound queue of its transmitter port
// to the inbound queue of its receiver port, one at a time.
type Sublink struct {
	*sim.HookableBase

	name        string
	engine      sim.EventScheduler
	link        *Link
	transmitter *Port
	receiver    *Port

	state        SublinkState
	current      *Message
	numDelivered uint64
}

func newSublink(
	engine sim.EventScheduler,
	link *Link,
	transmitter, receiver *Port,
) *Sublink {
	return &Sublink{
		HookableBase: sim.NewHookableBase(),
		name:         transmitter.Name() + "->" + receiver.Name(),
		engine:       engine,
		link:         link,
		transmitter:  transmitter,
		receiver:     receiver,
	}
}

// Name returns the name of the sublink.
func (s *Sublink) Name() string {
	return s.name
}

// Link returns the link the sublink is part of.
func (s *Sublink) Link() *Link {
	return s.link
}

// Transmitter returns the port messages are taken from.
func (s *Sublink) Transmitter() *Port {
	return s.transmitter
}

// Receiver returns the port messages are delivered to.
func (s *Sublink) Receiver() *Port {
	return s.receiver
}

// State returns the current stage of the sublink.
func (s *Sublink) State() SublinkState {
	return s.state
}

// CurrentMessage returns the message on the wire, or nil.
func (s *Sublink) CurrentMessage() *Message {
	return s.current
}

// NumDelivered returns how many messages the sublink delivered.
func (s *Sublink) NumDelivered() uint64 {
	return s.numDelivered
}

// Handle processes the sublink's own events.
func (s *Sublink) Handle(event any) error {
	switch e := event.(type) {
	case *deliveryEvent:
		s.deliver(e.msg)
	case *gapEndEvent:
		s.waitForMessage()
	default:
		return fmt.Errorf("sublink %s cannot handle %T", s.name, event)
	}

	return nil
}

func (s *Sublink) waitForMessage() {
	s.state = SublinkIdle
	s.transmitter.outbound.Get(s.startTransmission)
}

func (s *Sublink) startTransmission(req *sim.GetRequest) {
	msg := req.Item().(*Message)
	now := s.engine.CurrentTime()

	s.state = SublinkInFlight
	s.current = msg
	s.invokeHook(HookPosSublinkTxStart, now, msg)

	delay := ethernet.FrameTransmissionTimeUs(msg.SizeBytes(), s.link.mbps) +
		s.link.propagationDelayUs

	s.engine.Schedule(sim.ScheduledEvent{
		Event:   &deliveryEvent{msg: msg},
		Time:    now + sim.VTimeInUs(delay),
		Handler: s,
	})
}

func (s *Sublink) deliver(msg *Message) {
	now := s.engine.CurrentTime()

	s.state = SublinkDelivering
	s.receiver.receive(msg)
	s.numDelivered++
	s.invokeHook(HookPosSublinkDeliver, now, msg)

	s.current = nil
	s.state = SublinkGapWait

	s.engine.Schedule(sim.ScheduledEvent{
		Event:   &gapEndEvent{},
		Time:    now + sim.VTimeInUs(ethernet.IFGTimeUs(s.link.mbps)),
		Handler: s,
	})
}

func (s *Sublink) invokeHook(pos *sim.HookPos, now sim.VTimeInUs, msg *Message) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Now:    now,
		Pos:    pos,
		Item:   msg,
	})
}
