package devices

import (
	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// recording keeps every message a device receives.
type recording struct {
	engine sim.TimeTeller
	msgs   []*networking.Message
	times  []sim.VTimeInUs
}

func (r *recording) record(msgs []*networking.Message) {
	now := r.engine.CurrentTime()
	for _, m := range msgs {
		r.msgs = append(r.msgs, m)
		r.times = append(r.times, now)
	}
}

// RecordedMessages returns the received messages in reception order.
func (r *recording) RecordedMessages() []*networking.Message {
	return append([]*networking.Message(nil), r.msgs...)
}

// RecordedTimestamps returns the reception time of each recorded message.
func (r *recording) RecordedTimestamps() []sim.VTimeInUs {
	return append([]sim.VTimeInUs(nil), r.times...)
}

// A RecordingDevice records every message it receives.
type RecordingDevice struct {
	*networking.DeviceBase
	*recording
}

// NewRecordingDevice creates a RecordingDevice that starts listening right
// away.
func NewRecordingDevice(
	name string,
	engine sim.EventScheduler,
	numPorts int,
) *RecordingDevice {
	d := &RecordingDevice{}
	d.DeviceBase = networking.NewDeviceBase(name, engine, numPorts, d)
	d.recording = &recording{engine: engine}
	mustListen(d.DeviceBase, d.record)

	return d
}

// A PlaybackAndRecordingDevice transmits preloaded messages and records
// what it receives.
type PlaybackAndRecordingDevice struct {
	*networking.DeviceBase
	*playback
	*recording
}

// Name returns the name of the device.
func (d *PlaybackAndRecordingDevice) Name() string {
	return d.DeviceBase.Name()
}

// NewPlaybackAndRecordingDevice creates a PlaybackAndRecordingDevice.
func NewPlaybackAndRecordingDevice(
	name string,
	engine sim.EventScheduler,
	numPorts int,
) *PlaybackAndRecordingDevice {
	d := &PlaybackAndRecordingDevice{}
	d.DeviceBase = networking.NewDeviceBase(name, engine, numPorts, d)
	d.playback = &playback{device: d.DeviceBase}
	d.recording = &recording{engine: engine}
	mustListen(d.DeviceBase, d.record)

	return d
}

func mustListen(d *networking.DeviceBase, cb func([]*networking.Message)) {
	if err := d.ListenForMessages(cb); err != nil {
		panic(err)
	}
}
