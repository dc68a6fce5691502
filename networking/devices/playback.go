// Package devices provides network devices that generate, record or reflect
// traffic. They are used to drive experiments and to observe the network.
package devices

import (
	"fmt"
	"sort"

	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// A TransmissionCommand asks a device to transmit messages on a port at a
// given time.
type TransmissionCommand struct {
	Time     sim.VTimeInUs
	Port     *networking.Port
	Messages []*networking.Message
}

type playbackEvent struct {
	cmds []TransmissionCommand
}

// playback replays transmission commands on behalf of a device.
type playback struct {
	device     *networking.DeviceBase
	startTimes []sim.VTimeInUs
	toTransmit []*networking.Message
}

func (p *playback) Name() string {
	return p.device.Name()
}

// LoadTransmissionCommands schedules the commands. Commands with the same
// time run together, in the order they are given.
func (p *playback) LoadTransmissionCommands(cmds []TransmissionCommand) error {
	now := p.device.Engine().CurrentTime()

	for _, c := range cmds {
		if c.Time < now {
			return networking.NewError(
				"device %s cannot play back at %v us, now is %v us",
				p.device.Name(), c.Time, now)
		}

		if !p.device.OwnsPort(c.Port) {
			return networking.NewError("device %s does not own port %v",
				p.device.Name(), c.Port)
		}
	}

	sorted := append([]TransmissionCommand(nil), cmds...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Time == sorted[i].Time {
			p.toTransmit = append(p.toTransmit, sorted[j].Messages...)
			j++
		}

		p.device.Engine().Schedule(sim.ScheduledEvent{
			Event:   &playbackEvent{cmds: sorted[i:j]},
			Time:    sorted[i].Time,
			Handler: p,
		})

		i = j
	}

	return nil
}

func (p *playback) Handle(event any) error {
	e, ok := event.(*playbackEvent)
	if !ok {
		return fmt.Errorf("device %s cannot handle %T", p.device.Name(), event)
	}

	p.startTimes = append(p.startTimes, p.device.Engine().CurrentTime())

	for _, c := range e.cmds {
		for _, msg := range c.Messages {
			if err := p.device.InstructTransmission(msg, c.Port); err != nil {
				return err
			}
		}
	}

	return nil
}

// TransmissionStartTimes returns the times at which commands were played.
func (p *playback) TransmissionStartTimes() []sim.VTimeInUs {
	return append([]sim.VTimeInUs(nil), p.startTimes...)
}

// MessagesToTransmit returns all the loaded messages in playback order.
func (p *playback) MessagesToTransmit() []*networking.Message {
	return append([]*networking.Message(nil), p.toTransmit...)
}

// A PlaybackDevice transmits preloaded messages at preloaded times. It
// ignores what it receives.
type PlaybackDevice struct {
	*networking.DeviceBase
	*playback
}

// Name returns the name of the device.
func (d *PlaybackDevice) Name() string {
	return d.DeviceBase.Name()
}

// NewPlaybackDevice creates a PlaybackDevice.
func NewPlaybackDevice(
	name string,
	engine sim.EventScheduler,
	numPorts int,
) *PlaybackDevice {
	d := &PlaybackDevice{}
	d.DeviceBase = networking.NewDeviceBase(name, engine, numPorts, d)
	d.playback = &playback{device: d.DeviceBase}

	return d
}
