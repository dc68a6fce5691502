package networking

import "strings"

type destinationKind int

const (
	noDestination destinationKind = iota
	unicastDestination
	multicastDestination
)

// A Destination is either a single device (unicast) or a set of devices
// (multicast).
type Destination struct {
	kind    destinationKind
	devices []Device
}

// Unicast creates a destination that addresses one device.
func Unicast(device Device) Destination {
	return Destination{
		kind:    unicastDestination,
		devices: []Device{device},
	}
}

// Multicast creates a destination that addresses a set of devices. Repeated
// devices are only kept once.
func Multicast(devices ...Device) Destination {
	d := Destination{kind: multicastDestination}

	for _, dev := range devices {
		if !d.Contains(dev) {
			d.devices = append(d.devices, dev)
		}
	}

	return d
}

// IsZero tells if the destination was never set.
func (d Destination) IsZero() bool {
	return d.kind == noDestination
}

// IsMulticast tells if the destination is a set of devices.
func (d Destination) IsMulticast() bool {
	return d.kind == multicastDestination
}

// Devices returns the addressed devices.
func (d Destination) Devices() []Device {
	return append([]Device(nil), d.devices...)
}

// Contains tells if the device is addressed.
func (d Destination) Contains(device Device) bool {
	for _, dev := range d.devices {
		if dev == device {
			return true
		}
	}

	return false
}

// Equal tells if both destinations address the same devices in the same
// way. The order of multicast members does not matter.
func (d Destination) Equal(other Destination) bool {
	if d.kind != other.kind || len(d.devices) != len(other.devices) {
		return false
	}

	for _, dev := range d.devices {
		if !other.Contains(dev) {
			return false
		}
	}

	return true
}

func (d Destination) String() string {
	names := make([]string, 0, len(d.devices))
	for _, dev := range d.devices {
		names = append(names, dev.Name())
	}

	switch d.kind {
	case unicastDestination:
		return names[0]
	case multicastDestination:
		return "{" + strings.Join(names, ",") + "}"
	default:
		return "<none>"
	}
}
