package networking

import (
	"fmt"
	"reflect"

	"github.com/ft4fttsim/ft4fttsim/ethernet"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// MessageType labels the purpose of a message.
type MessageType string

// A Message is an Ethernet frame travelling through the network. Messages
// are immutable.
type Message struct {
	id          uint64
	idGenerator sim.IDGenerator
	source      Device
	destination Destination
	sizeBytes   int
	msgType     MessageType
	data        any
}

// ID returns the unique identifier of the message.
func (m *Message) ID() uint64 {
	return m.id
}

// Source returns the device that created the message.
func (m *Message) Source() Device {
	return m.source
}

// Destination returns the addressed device or devices.
func (m *Message) Destination() Destination {
	return m.destination
}

// SizeBytes returns the frame size, preamble and SFD excluded.
func (m *Message) SizeBytes() int {
	return m.sizeBytes
}

// Type returns the message type.
func (m *Message) Type() MessageType {
	return m.msgType
}

// Data returns the opaque payload.
func (m *Message) Data() any {
	return m.data
}

func (m *Message) String() string {
	src := "<nil>"
	if m.source != nil {
		src = m.source.Name()
	}

	return fmt.Sprintf("msg %d (%s, %s -> %s, %d B)",
		m.id, m.msgType, src, m.destination, m.sizeBytes)
}

// FromMessage creates a copy of the template with a fresh id.
func FromMessage(template *Message) *Message {
	clone := *template
	clone.id = template.idGenerator.Generate()

	return &clone
}

// Equivalent tells if two messages carry the same source, destination, size,
// type and data. Ids are not compared.
func Equivalent(a, b *Message) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.source == b.source &&
		a.destination.Equal(b.destination) &&
		a.sizeBytes == b.sizeBytes &&
		a.msgType == b.msgType &&
		reflect.DeepEqual(a.data, b.data)
}

// MessageBuilder creates messages.
type MessageBuilder struct {
	idGenerator sim.IDGenerator
	source      Device
	destination Destination
	sizeBytes   int
	msgType     MessageType
	data        any
}

// WithIDGenerator sets the generator that provides the message ids.
func (b MessageBuilder) WithIDGenerator(g sim.IDGenerator) MessageBuilder {
	b.idGenerator = g
	return b
}

// WithSource sets the source device.
func (b MessageBuilder) WithSource(src Device) MessageBuilder {
	b.source = src
	return b
}

// WithDestination sets the destination.
func (b MessageBuilder) WithDestination(dst Destination) MessageBuilder {
	b.destination = dst
	return b
}

// WithSizeBytes sets the frame size.
func (b MessageBuilder) WithSizeBytes(size int) MessageBuilder {
	b.sizeBytes = size
	return b
}

// WithType sets the message type.
func (b MessageBuilder) WithType(t MessageType) MessageBuilder {
	b.msgType = t
	return b
}

// WithData sets the payload.
func (b MessageBuilder) WithData(data any) MessageBuilder {
	b.data = data
	return b
}

// Build creates the message.
func (b MessageBuilder) Build() (*Message, error) {
	if b.idGenerator == nil {
		return nil, NewError("message needs an id generator")
	}

	if b.destination.IsZero() {
		return nil, NewError("message needs a destination")
	}

	if !ethernet.IsValidFrameSize(b.sizeBytes) {
		return nil, NewError(
			"message size %d B is outside [%d, %d] B",
			b.sizeBytes,
			ethernet.MinFrameSizeBytes,
			ethernet.MaxFrameSizeBytes)
	}

	return &Message{
		id:          b.idGenerator.Generate(),
		idGenerator: b.idGenerator,
		source:      b.source,
		destination: b.destination,
		sizeBytes:   b.sizeBytes,
		msgType:     b.msgType,
		data:        b.data,
	}, nil
}
