package devices

import (
	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// An EchoDevice sends a copy of every received message back out on all of
// its ports.
type EchoDevice struct {
	*networking.DeviceBase

	numEchoed int
}

// NewEchoDevice creates an EchoDevice.
func NewEchoDevice(
	name string,
	engine sim.EventScheduler,
	numPorts int,
) *EchoDevice {
	d := &EchoDevice{}
	d.DeviceBase = networking.NewDeviceBase(name, engine, numPorts, d)
	mustListen(d.DeviceBase, d.echo)

	return d
}

// NumEchoed returns how many messages were sent back.
func (d *EchoDevice) NumEchoed() int {
	return d.numEchoed
}

func (d *EchoDevice) echo(msgs []*networking.Message) {
	for _, msg := range msgs {
		for _, p := range d.Ports() {
			err := d.InstructTransmission(networking.FromMessage(msg), p)
			if err != nil {
				panic(err)
			}

			d.numEchoed++
		}
	}
}
