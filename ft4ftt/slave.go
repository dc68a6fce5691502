package ft4ftt

import (
	"github.com/ft4fttsim/ft4fttsim/ethernet"
	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// A Slave answers every trigger message with a burst of synchronous
// messages sent on all of its ports.
type Slave struct {
	*networking.DeviceBase

	idGenerator            sim.IDGenerator
	syncDestination        networking.Destination
	syncMessagesPerTrigger int
	numTriggersReceived    int
	numSyncMessagesSent    int
}

// NumTriggersReceived returns how many trigger messages arrived.
func (s *Slave) NumTriggersReceived() int {
	return s.numTriggersReceived
}

// NumSyncMessagesSent returns how many synchronous messages were sent.
func (s *Slave) NumSyncMessagesSent() int {
	return s.numSyncMessagesSent
}

// SyncDestination returns where synchronous messages are sent to.
func (s *Slave) SyncDestination() networking.Destination {
	return s.syncDestination
}

// ProcessReceivedMessages sends the synchronous messages for each trigger
// in the batch.
func (s *Slave) ProcessReceivedMessages(msgs []*networking.Message) {
	for _, msg := range msgs {
		if msg.Type() != MessageTypeTrigger {
			continue
		}

		s.numTriggersReceived++
		s.transmitSyncMessages()
	}
}

func (s *Slave) transmitSyncMessages() {
	for i := 0; i < s.syncMessagesPerTrigger; i++ {
		for _, p := range s.Ports() {
			msg, err := networking.MessageBuilder{}.
				WithIDGenerator(s.idGenerator).
				WithSource(s).
				WithDestination(s.syncDestination).
				WithSizeBytes(ethernet.MaxFrameSizeBytes).
				WithType(MessageTypeSync).
				Build()
			if err != nil {
				panic(err)
			}

			if err := s.InstructTransmission(msg, p); err != nil {
				panic(err)
			}

			s.numSyncMessagesSent++
		}
	}
}

// SlaveBuilder creates slaves.
type SlaveBuilder struct {
	engine                 sim.EventScheduler
	idGenerator            sim.IDGenerator
	numPorts               int
	syncDestination        networking.Destination
	syncMessagesPerTrigger int
}

// MakeSlaveBuilder creates a SlaveBuilder with default parameters: one port
// and two synchronous messages per trigger, sent to the slave itself.
func MakeSlaveBuilder() SlaveBuilder {
	return SlaveBuilder{
		numPorts:               1,
		syncMessagesPerTrigger: 2,
	}
}

// WithEngine sets the engine the slave runs on.
func (b SlaveBuilder) WithEngine(engine sim.EventScheduler) SlaveBuilder {
	b.engine = engine
	return b
}

// WithIDGenerator sets the generator of the message ids.
func (b SlaveBuilder) WithIDGenerator(g sim.IDGenerator) SlaveBuilder {
	b.idGenerator = g
	return b
}

// WithNumPorts sets the number of ports.
func (b SlaveBuilder) WithNumPorts(n int) SlaveBuilder {
	b.numPorts = n
	return b
}

// WithSyncDestination sets where synchronous messages are sent to.
func (b SlaveBuilder) WithSyncDestination(
	dst networking.Destination,
) SlaveBuilder {
	b.syncDestination = dst
	return b
}

// WithSyncMessagesPerTrigger sets how many synchronous messages answer a
// trigger.
func (b SlaveBuilder) WithSyncMessagesPerTrigger(n int) SlaveBuilder {
	b.syncMessagesPerTrigger = n
	return b
}

// Build creates the slave.
func (b SlaveBuilder) Build(name string) (*Slave, error) {
	switch {
	case b.engine == nil:
		return nil, networking.NewError("slave %s needs an engine", name)
	case b.idGenerator == nil:
		return nil, networking.NewError("slave %s needs an id generator",
			name)
	case b.numPorts < 0:
		return nil, networking.NewError("slave %s cannot have %d ports",
			name, b.numPorts)
	case b.syncMessagesPerTrigger < 0:
		return nil, networking.NewError(
			"slave %s cannot send %d messages per trigger",
			name, b.syncMessagesPerTrigger)
	}

	s := &Slave{
		idGenerator:            b.idGenerator,
		syncDestination:        b.syncDestination,
		syncMessagesPerTrigger: b.syncMessagesPerTrigger,
	}
	s.DeviceBase = networking.NewDeviceBase(name, b.engine, b.numPorts, s)

	if s.syncDestination.IsZero() {
		s.syncDestination = networking.Unicast(s)
	}

	if err := s.ListenForMessages(s.ProcessReceivedMessages); err != nil {
		return nil, err
	}

	return s, nil
}
