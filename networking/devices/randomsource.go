package devices

import (
	"fmt"
	"math"

	"github.com/ft4fttsim/ft4fttsim/ethernet"
	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
	"github.com/iti/rngstream"
)

type emitEvent struct{}

// A RandomTrafficSource sends a fixed number of messages with exponentially
// distributed inter-arrival times and uniformly distributed frame sizes.
// Ports are used in turn.
type RandomTrafficSource struct {
	*networking.DeviceBase

	idGenerator    sim.IDGenerator
	rng            *rngstream.RngStream
	destination    networking.Destination
	msgType        networking.MessageType
	meanIntervalUs float64
	minSizeBytes   int
	maxSizeBytes   int
	count          int

	numSent  int
	nextPort int
}

// NumSent returns how many messages were sent so far.
func (s *RandomTrafficSource) NumSent() int {
	return s.numSent
}

// Handle processes the source's own events.
func (s *RandomTrafficSource) Handle(event any) error {
	if _, ok := event.(*emitEvent); !ok {
		return fmt.Errorf("source %s cannot handle %T", s.Name(), event)
	}

	if err := s.emit(); err != nil {
		return err
	}

	if s.numSent < s.count {
		s.scheduleNext()
	}

	return nil
}

func (s *RandomTrafficSource) emit() error {
	size := s.minSizeBytes +
		int(s.rng.RandU01()*float64(s.maxSizeBytes-s.minSizeBytes+1))
	if size > s.maxSizeBytes {
		size = s.maxSizeBytes
	}

	msg, err := networking.MessageBuilder{}.
		WithIDGenerator(s.idGenerator).
		WithSource(s).
		WithDestination(s.destination).
		WithSizeBytes(size).
		WithType(s.msgType).
		WithData(s.numSent).
		Build()
	if err != nil {
		return err
	}

	port := s.Port(s.nextPort)
	s.nextPort = (s.nextPort + 1) % len(s.Ports())
	s.numSent++

	return s.InstructTransmission(msg, port)
}

func (s *RandomTrafficSource) scheduleNext() {
	interval := -s.meanIntervalUs * math.Log(1-s.rng.RandU01())
	now := s.Engine().CurrentTime()

	s.Engine().Schedule(sim.ScheduledEvent{
		Event:   &emitEvent{},
		Time:    now + sim.VTimeInUs(interval),
		Handler: s,
	})
}

// RandomTrafficSourceBuilder creates random traffic sources.
type RandomTrafficSourceBuilder struct {
	engine         sim.EventScheduler
	idGenerator    sim.IDGenerator
	numPorts       int
	destination    networking.Destination
	msgType        networking.MessageType
	meanIntervalUs float64
	minSizeBytes   int
	maxSizeBytes   int
	count          int
}

// MakeRandomTrafficSourceBuilder creates a builder with default parameters:
// one port, any valid frame size and a mean interval of 100 us.
func MakeRandomTrafficSourceBuilder() RandomTrafficSourceBuilder {
	return RandomTrafficSourceBuilder{
		numPorts:       1,
		msgType:        "random",
		meanIntervalUs: 100,
		minSizeBytes:   ethernet.MinFrameSizeBytes,
		maxSizeBytes:   ethernet.MaxFrameSizeBytes,
	}
}

// WithEngine sets the engine the source runs on.
func (b RandomTrafficSourceBuilder) WithEngine(
	engine sim.EventScheduler,
) RandomTrafficSourceBuilder {
	b.engine = engine
	return b
}

// WithIDGenerator sets the generator of the message ids.
func (b RandomTrafficSourceBuilder) WithIDGenerator(
	g sim.IDGenerator,
) RandomTrafficSourceBuilder {
	b.idGenerator = g
	return b
}

// WithNumPorts sets the number of ports.
func (b RandomTrafficSourceBuilder) WithNumPorts(
	n int,
) RandomTrafficSourceBuilder {
	b.numPorts = n
	return b
}

// WithDestination sets where messages are sent to.
func (b RandomTrafficSourceBuilder) WithDestination(
	dst networking.Destination,
) RandomTrafficSourceBuilder {
	b.destination = dst
	return b
}

// WithType sets the type of the generated messages.
func (b RandomTrafficSourceBuilder) WithType(
	t networking.MessageType,
) RandomTrafficSourceBuilder {
	b.msgType = t
	return b
}

// WithMeanIntervalUs sets the mean time between two messages.
func (b RandomTrafficSourceBuilder) WithMeanIntervalUs(
	us float64,
) RandomTrafficSourceBuilder {
	b.meanIntervalUs = us
	return b
}

// WithSizeRange sets the smallest and largest frame size.
func (b RandomTrafficSourceBuilder) WithSizeRange(
	minBytes, maxBytes int,
) RandomTrafficSourceBuilder {
	b.minSizeBytes = minBytes
	b.maxSizeBytes = maxBytes

	return b
}

// WithCount sets how many messages are sent.
func (b RandomTrafficSourceBuilder) WithCount(
	n int,
) RandomTrafficSourceBuilder {
	b.count = n
	return b
}

// Build creates the source. The random stream is named after the source.
func (b RandomTrafficSourceBuilder) Build(
	name string,
) (*RandomTrafficSource, error) {
	switch {
	case b.engine == nil:
		return nil, networking.NewError("source %s needs an engine", name)
	case b.idGenerator == nil:
		return nil, networking.NewError("source %s needs an id generator",
			name)
	case b.numPorts < 1:
		return nil, networking.NewError("source %s needs at least one port",
			name)
	case b.destination.IsZero():
		return nil, networking.NewError("source %s needs a destination",
			name)
	case !(b.meanIntervalUs > 0):
		return nil, networking.NewError(
			"source %s needs a positive mean interval", name)
	case !ethernet.IsValidFrameSize(b.minSizeBytes) ||
		!ethernet.IsValidFrameSize(b.maxSizeBytes) ||
		b.minSizeBytes > b.maxSizeBytes:
		return nil, networking.NewError(
			"source %s has an invalid size range [%d, %d] B",
			name, b.minSizeBytes, b.maxSizeBytes)
	case b.count < 0:
		return nil, networking.NewError("source %s cannot send %d messages",
			name, b.count)
	}

	s := &RandomTrafficSource{
		idGenerator:    b.idGenerator,
		rng:            rngstream.New(name),
		destination:    b.destination,
		msgType:        b.msgType,
		meanIntervalUs: b.meanIntervalUs,
		minSizeBytes:   b.minSizeBytes,
		maxSizeBytes:   b.maxSizeBytes,
		count:          b.count,
	}
	s.DeviceBase = networking.NewDeviceBase(name, b.engine, b.numPorts, s)

	if s.count > 0 {
		s.scheduleNext()
	}

	return s, nil
}
