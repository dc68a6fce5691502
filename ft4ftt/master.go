package ft4ftt

import (
	"fmt"
	"maps"

	"github.com/ft4fttsim/ft4fttsim/ethernet"
	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// HookPosECStart marks the start of an elementary cycle. The hook Item is
// the cycle number.
var HookPosECStart = &sim.HookPos{Name: "EC Start"}

// HookPosUpdateAccepted marks an update request that changed the
// synchronous requirements.
var HookPosUpdateAccepted = &sim.HookPos{Name: "Update Accepted"}

// HookPosUpdateRejected marks an update request that was dropped. The hook
// Detail holds the reason.
var HookPosUpdateRejected = &sim.HookPos{Name: "Update Rejected"}

// An AdmissionController decides if an update request may change the
// synchronous requirements.
type AdmissionController interface {
	PassesAdmissionControl(msg *networking.Message) bool
}

// AcceptAll admits every request.
type AcceptAll struct{}

// PassesAdmissionControl always returns true.
func (AcceptAll) PassesAdmissionControl(*networking.Message) bool {
	return true
}

type ecStartEvent struct{}

type ecBoundaryEvent struct{}

// A Master divides time into elementary cycles (ECs). At the start of every
// EC it broadcasts a number of trigger messages to its slaves on all of its
// ports. It also keeps the table of synchronous requirements that update
// requests modify.
//
// A new EC starts when the previous one has lasted at least the EC
// duration. The delay of a late check is never made up for, so EC start
// times may drift.
type Master struct {
	*networking.DeviceBase

	idGenerator      sim.IDGenerator
	slaves           []networking.Device
	ecDurationUs     sim.VTimeInUs
	numTriggersPerEC int
	admission        AdmissionController

	ecCount          int
	ecStart          sim.VTimeInUs
	syncRequirements map[StreamID]SyncStreamConfig
}

// Slaves returns the devices the triggers are sent to.
func (m *Master) Slaves() []networking.Device {
	return append([]networking.Device(nil), m.slaves...)
}

// ECDurationUs returns the nominal length of an elementary cycle.
func (m *Master) ECDurationUs() sim.VTimeInUs {
	return m.ecDurationUs
}

// NumTriggersPerEC returns how many triggers are sent per cycle.
func (m *Master) NumTriggersPerEC() int {
	return m.numTriggersPerEC
}

// ECCount returns the number of cycles started so far.
func (m *Master) ECCount() int {
	return m.ecCount
}

// ECStartTime returns when the current cycle started.
func (m *Master) ECStartTime() sim.VTimeInUs {
	return m.ecStart
}

// SyncRequirements returns a copy of the synchronous requirements.
func (m *Master) SyncRequirements() map[StreamID]SyncStreamConfig {
	return maps.Clone(m.syncRequirements)
}

// Handle processes the master's own events.
func (m *Master) Handle(event any) error {
	switch event.(type) {
	case *ecStartEvent:
		m.startEC()
	case *ecBoundaryEvent:
		m.checkECBoundary()
	default:
		return fmt.Errorf("master %s cannot handle %T", m.Name(), event)
	}

	return nil
}

func (m *Master) startEC() {
	now := m.Engine().CurrentTime()
	m.ecCount++
	m.ecStart = now

	if m.NumHooks() > 0 {
		m.InvokeHook(sim.HookCtx{
			Domain: m,
			Now:    now,
			Pos:    HookPosECStart,
			Item:   m.ecCount,
		})
	}

	for i := 0; i < m.numTriggersPerEC; i++ {
		m.broadcastTriggerMessage()
	}

	m.checkECBoundary()
}

// checkECBoundary starts the next cycle once the current one has lasted
// long enough and otherwise waits for the remaining time.
func (m *Master) checkECBoundary() {
	now := m.Engine().CurrentTime()
	boundary := m.ecStart + m.ecDurationUs

	if boundary > now {
		m.Engine().Schedule(sim.ScheduledEvent{
			Event:   &ecBoundaryEvent{},
			Time:    boundary,
			Handler: m,
		})

		return
	}

	m.startEC()
}

func (m *Master) broadcastTriggerMessage() {
	for _, p := range m.Ports() {
		msg, err := networking.MessageBuilder{}.
			WithIDGenerator(m.idGenerator).
			WithSource(m).
			WithDestination(networking.Multicast(m.slaves...)).
			WithSizeBytes(ethernet.MaxFrameSizeBytes).
			WithType(MessageTypeTrigger).
			WithData(TriggerData{EC: m.ecCount}).
			Build()
		if err != nil {
			panic(err)
		}

		if err := m.InstructTransmission(msg, p); err != nil {
			panic(err)
		}
	}
}

// ProcessReceivedMessages handles a batch of received messages. Update
// requests are applied; everything else is ignored.
func (m *Master) ProcessReceivedMessages(msgs []*networking.Message) {
	for _, msg := range msgs {
		if msg.Type() != MessageTypeUpdateRequest {
			continue
		}

		if err := m.ProcessUpdateRequestMessage(msg); err != nil {
			m.invokeUpdateHook(HookPosUpdateRejected, msg, err.Error())
		}
	}
}

// ProcessUpdateRequestMessage applies an update request if it passes the
// admission control. A request whose payload is not an UpdateRequest is an
// error.
func (m *Master) ProcessUpdateRequestMessage(msg *networking.Message) error {
	var req UpdateRequest

	switch data := msg.Data().(type) {
	case UpdateRequest:
		req = data
	case *UpdateRequest:
		if data == nil {
			return networking.NewError("update request %d has no payload",
				msg.ID())
		}

		req = *data
	default:
		return networking.NewError(
			"update request %d carries %T instead of an UpdateRequest",
			msg.ID(), msg.Data())
	}

	if !m.admission.PassesAdmissionControl(msg) {
		m.invokeUpdateHook(HookPosUpdateRejected, msg, "admission control")
		return nil
	}

	m.syncRequirements[req.StreamID] = req.Config
	m.invokeUpdateHook(HookPosUpdateAccepted, msg, req)

	return nil
}

func (m *Master) invokeUpdateHook(
	pos *sim.HookPos,
	msg *networking.Message,
	detail any,
) {
	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(sim.HookCtx{
		Domain: m,
		Now:    m.Engine().CurrentTime(),
		Pos:    pos,
		Item:   msg,
		Detail: detail,
	})
}

// MasterBuilder creates masters.
type MasterBuilder struct {
	engine           sim.EventScheduler
	idGenerator      sim.IDGenerator
	numPorts         int
	slaves           []networking.Device
	ecDurationUs     sim.VTimeInUs
	numTriggersPerEC int
	admission        AdmissionController
	syncRequirements map[StreamID]SyncStreamConfig
}

// MakeMasterBuilder creates a MasterBuilder with default parameters: one
// port, one trigger per EC and admission of every request.
func MakeMasterBuilder() MasterBuilder {
	return MasterBuilder{
		numPorts:         1,
		numTriggersPerEC: 1,
		admission:        AcceptAll{},
	}
}

// WithEngine sets the engine the master runs on.
func (b MasterBuilder) WithEngine(engine sim.EventScheduler) MasterBuilder {
	b.engine = engine
	return b
}

// WithIDGenerator sets the generator of the trigger message ids.
func (b MasterBuilder) WithIDGenerator(g sim.IDGenerator) MasterBuilder {
	b.idGenerator = g
	return b
}

// WithNumPorts sets the number of ports.
func (b MasterBuilder) WithNumPorts(n int) MasterBuilder {
	b.numPorts = n
	return b
}

// WithSlaves sets the devices the triggers are addressed to.
func (b MasterBuilder) WithSlaves(slaves ...networking.Device) MasterBuilder {
	b.slaves = slaves
	return b
}

// WithECDurationUs sets the length of an elementary cycle.
func (b MasterBuilder) WithECDurationUs(d sim.VTimeInUs) MasterBuilder {
	b.ecDurationUs = d
	return b
}

// WithNumTriggersPerEC sets how many triggers are sent at the start of each
// cycle.
func (b MasterBuilder) WithNumTriggersPerEC(n int) MasterBuilder {
	b.numTriggersPerEC = n
	return b
}

// WithAdmissionController replaces the admission control policy.
func (b MasterBuilder) WithAdmissionController(
	a AdmissionController,
) MasterBuilder {
	b.admission = a
	return b
}

// WithSyncRequirements sets the initial synchronous requirements.
func (b MasterBuilder) WithSyncRequirements(
	r map[StreamID]SyncStreamConfig,
) MasterBuilder {
	b.syncRequirements = r
	return b
}

// Build creates the master. The first elementary cycle starts at the
// current time of the engine.
func (b MasterBuilder) Build(name string) (*Master, error) {
	switch {
	case b.engine == nil:
		return nil, networking.NewError("master %s needs an engine", name)
	case b.idGenerator == nil:
		return nil, networking.NewError("master %s needs an id generator",
			name)
	case b.numPorts < 0:
		return nil, networking.NewError("master %s cannot have %d ports",
			name, b.numPorts)
	case !(b.ecDurationUs > 0):
		return nil, networking.NewError(
			"master %s needs a positive EC duration, got %v us",
			name, b.ecDurationUs)
	case b.numTriggersPerEC < 0:
		return nil, networking.NewError(
			"master %s cannot send %d triggers per EC",
			name, b.numTriggersPerEC)
	case b.admission == nil:
		return nil, networking.NewError(
			"master %s needs an admission controller", name)
	}

	m := &Master{
		idGenerator:      b.idGenerator,
		slaves:           append([]networking.Device(nil), b.slaves...),
		ecDurationUs:     b.ecDurationUs,
		numTriggersPerEC: b.numTriggersPerEC,
		admission:        b.admission,
		syncRequirements: maps.Clone(b.syncRequirements),
	}

	if m.syncRequirements == nil {
		m.syncRequirements = make(map[StreamID]SyncStreamConfig)
	}

	m.DeviceBase = networking.NewDeviceBase(name, b.engine, b.numPorts, m)

	if err := m.ListenForMessages(m.ProcessReceivedMessages); err != nil {
		return nil, err
	}

	b.engine.Schedule(sim.ScheduledEvent{
		Event:   &ecStartEvent{},
		Time:    b.engine.CurrentTime(),
		Handler: m,
	})

	return m, nil
}
