package networking

import "github.com/ft4fttsim/ft4fttsim/sim"

// HookPosPortMsgSend marks when a device hands a message to a port.
var HookPosPortMsgSend = &sim.HookPos{Name: "Port Msg Send"}

// HookPosPortMsgRecvd marks when a message lands in the inbound queue of a
// port.
var HookPosPortMsgRecvd = &sim.HookPos{Name: "Port Msg Recv"}

// A Port connects a device to at most one link.
//
// Received messages wait in an unbounded inbound queue. Messages to send wait
// in an outbound queue that holds a single message, so a second transmission
// on a busy port waits until the link picks up the first.
type Port struct {
	*sim.HookableBase

	name     string
	device   *DeviceBase
	inbound  *sim.Queue
	outbound *sim.Queue
	link     *Link
}

func newPort(device *DeviceBase, name string) *Port {
	return &Port{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		device:       device,
		inbound:      sim.NewQueue(name+".inbound", 0),
		outbound:     sim.NewQueue(name+".outbound", 1),
	}
}

// Name returns the name of the port.
func (p *Port) Name() string {
	return p.name
}

// Owner returns the device the port belongs to.
func (p *Port) Owner() Device {
	return p.device.owner
}

// InboundQueue returns the queue of received messages.
func (p *Port) InboundQueue() *sim.Queue {
	return p.inbound
}

// OutboundQueue returns the queue of messages waiting for the link.
func (p *Port) OutboundQueue() *sim.Queue {
	return p.outbound
}

// IsFree tells if the port is not attached to a link yet.
func (p *Port) IsFree() bool {
	return p.link == nil
}

// Link returns the link the port is attached to, or nil.
func (p *Port) Link() *Link {
	return p.link
}

func (p *Port) send(msg *Message) {
	p.invokeHook(HookPosPortMsgSend, msg)
	p.outbound.Put(msg, nil)
}

func (p *Port) receive(msg *Message) {
	p.invokeHook(HookPosPortMsgRecvd, msg)
	p.inbound.Put(msg, nil)
}

func (p *Port) invokeHook(pos *sim.HookPos, msg *Message) {
	if p.NumHooks() == 0 {
		return
	}

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Now:    p.device.engine.CurrentTime(),
		Pos:    pos,
		Item:   msg,
	})
}
