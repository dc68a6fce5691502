package topology

import (
	"fmt"
	"sort"

	"github.com/ft4fttsim/ft4fttsim/ft4ftt"
	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/networking/devices"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// A Network is a set of built devices and links.
type Network struct {
	simulation *sim.Simulation
	config     *Config

	devices map[string]networking.Device
	order   []string
	links   []*networking.Link

	switches   map[string]*networking.Switch
	masters    map[string]*ft4ftt.Master
	recorders  map[string]*devices.RecordingDevice
	deviceKind map[string]string
}

// Simulation returns the session the network lives in.
func (n *Network) Simulation() *sim.Simulation {
	return n.simulation
}

// Config returns the configuration the network was built from.
func (n *Network) Config() *Config {
	return n.config
}

// Device returns the device with the given name, or nil.
func (n *Network) Device(name string) networking.Device {
	return n.devices[name]
}

// DeviceNames returns the names of all the devices, in build order.
func (n *Network) DeviceNames() []string {
	return append([]string(nil), n.order...)
}

// Devices returns all the devices, in build order.
func (n *Network) Devices() []networking.Device {
	out := make([]networking.Device, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.devices[name])
	}

	return out
}

// Links returns all the links, internal links of FT4FTT switches included.
func (n *Network) Links() []*networking.Link {
	return append([]*networking.Link(nil), n.links...)
}

// Kind returns the configured kind of the named device.
func (n *Network) Kind(name string) string {
	return n.deviceKind[name]
}

// Switch returns the forwarding part of the named switch or FT4FTT switch.
func (n *Network) Switch(name string) *networking.Switch {
	return n.switches[name]
}

// Master returns the named master, embedded ones included.
func (n *Network) Master(name string) *ft4ftt.Master {
	return n.masters[name]
}

// Recorders returns the recording devices sorted by name.
func (n *Network) Recorders() []*devices.RecordingDevice {
	names := make([]string, 0, len(n.recorders))
	for name := range n.recorders {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*devices.RecordingDevice, 0, len(names))
	for _, name := range names {
		out = append(out, n.recorders[name])
	}

	return out
}

func (n *Network) add(name, kind string, d networking.Device) error {
	if err := n.simulation.RegisterComponent(d); err != nil {
		return err
	}

	n.devices[name] = d
	n.order = append(n.order, name)
	n.deviceKind[name] = kind

	return nil
}

func (n *Network) resolve(names []string) ([]networking.Device, bool) {
	out := make([]networking.Device, 0, len(names))
	for _, name := range names {
		d, found := n.devices[name]
		if !found {
			return nil, false
		}

		out = append(out, d)
	}

	return out, true
}

// Build creates the devices and links of the configuration in the
// simulation. With automatic routing, the forwarding tables of all the
// switches are filled with shortest paths.
func Build(s *sim.Simulation, cfg *Config) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &Network{
		simulation: s,
		config:     cfg,
		devices:    make(map[string]networking.Device),
		switches:   make(map[string]*networking.Switch),
		masters:    make(map[string]*ft4ftt.Master),
		recorders:  make(map[string]*devices.RecordingDevice),
		deviceKind: make(map[string]string),
	}

	if err := n.buildDevices(); err != nil {
		return nil, err
	}

	if err := n.buildLinks(); err != nil {
		return nil, err
	}

	if cfg.Routing == RoutingAuto {
		if err := n.computeForwardingTables(); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// buildDevices builds devices in passes, so that a device is only built
// once every device it addresses exists.
func (n *Network) buildDevices() error {
	pending := append([]DeviceConfig(nil), n.config.Devices...)

	for len(pending) > 0 {
		var next []DeviceConfig

		for _, dc := range pending {
			built, err := n.buildDevice(dc)
			if err != nil {
				return err
			}

			if !built {
				next = append(next, dc)
			}
		}

		if len(next) == len(pending) {
			return fmt.Errorf("topology: circular references between "+
				"devices, starting at %q", next[0].Name)
		}

		pending = next
	}

	return nil
}

func (n *Network) buildDevice(dc DeviceConfig) (bool, error) {
	if _, ok := n.resolve(dc.references()); !ok {
		return false, nil
	}

	engine := n.simulation.GetEngine()
	ids := n.simulation.IDGenerator()

	var (
		dev networking.Device
		err error
	)

	switch dc.Kind {
	case KindRecorder:
		r := devices.NewRecordingDevice(dc.Name, engine, dc.Ports)
		n.recorders[dc.Name] = r
		dev = r
	case KindEcho:
		dev = devices.NewEchoDevice(dc.Name, engine, dc.Ports)
	case KindSwitch:
		var sw *networking.Switch
		sw, err = networking.MakeSwitchBuilder().
			WithEngine(engine).
			WithNumPorts(dc.Ports).
			Build(dc.Name)
		n.switches[dc.Name] = sw
		dev = sw
	case KindSlave:
		dev, err = n.buildSlave(dc, ids)
	case KindMaster:
		var m *ft4ftt.Master
		m, err = n.buildMaster(dc.Name, dc.Ports, dc.Master, ids)
		dev = m
	case KindFT4FTTSwitch:
		dev, err = n.buildFT4FTTSwitch(dc, ids)
	case KindRandomSource:
		dev, err = n.buildRandomSource(dc, ids)
	}

	if err != nil {
		return false, err
	}

	return true, n.add(dc.Name, dc.Kind, dev)
}

func (n *Network) buildSlave(
	dc DeviceConfig,
	ids sim.IDGenerator,
) (*ft4ftt.Slave, error) {
	b := ft4ftt.MakeSlaveBuilder().
		WithEngine(n.simulation.GetEngine()).
		WithIDGenerator(ids).
		WithNumPorts(dc.Ports)

	if dc.SyncDestination != "" {
		dst := n.devices[dc.SyncDestination]
		b = b.WithSyncDestination(networking.Unicast(dst))
	}

	if dc.SyncMessagesPerTrigger != nil {
		b = b.WithSyncMessagesPerTrigger(*dc.SyncMessagesPerTrigger)
	}

	return b.Build(dc.Name)
}

func (n *Network) buildMaster(
	name string,
	numPorts int,
	mc *MasterConfig,
	ids sim.IDGenerator,
) (*ft4ftt.Master, error) {
	slaves, _ := n.resolve(mc.Slaves)

	m, err := ft4ftt.MakeMasterBuilder().
		WithEngine(n.simulation.GetEngine()).
		WithIDGenerator(ids).
		WithNumPorts(numPorts).
		WithECDurationUs(sim.VTimeInUs(mc.ECDurationUs)).
		WithNumTriggersPerEC(mc.TriggersPerEC).
		WithSlaves(slaves...).
		WithSyncRequirements(mc.SyncRequirements).
		Build(name)
	if err != nil {
		return nil, err
	}

	n.masters[name] = m

	return m, nil
}

func (n *Network) buildFT4FTTSwitch(
	dc DeviceConfig,
	ids sim.IDGenerator,
) (*ft4ftt.FT4FTTSwitch, error) {
	m, err := n.buildMaster(dc.Master.Name, 1, dc.Master, ids)
	if err != nil {
		return nil, err
	}

	sw, err := ft4ftt.MakeFT4FTTSwitchBuilder().
		WithEngine(n.simulation.GetEngine()).
		WithNumPorts(dc.Ports).
		WithMaster(m).
		Build(dc.Name)
	if err != nil {
		return nil, err
	}

	if err := n.add(dc.Master.Name, KindMaster, m); err != nil {
		return nil, err
	}

	n.switches[dc.Name] = sw.Switch
	n.links = append(n.links, sw.InternalLink())

	return sw, nil
}

func (n *Network) buildRandomSource(
	dc DeviceConfig,
	ids sim.IDGenerator,
) (*devices.RandomTrafficSource, error) {
	targets, _ := n.resolve(dc.Destination)

	dst := networking.Unicast(targets[0])
	if len(targets) > 1 {
		dst = networking.Multicast(targets...)
	}

	b := devices.MakeRandomTrafficSourceBuilder().
		WithEngine(n.simulation.GetEngine()).
		WithIDGenerator(ids).
		WithDestination(dst).
		WithCount(dc.Count)

	if dc.Ports > 0 {
		b = b.WithNumPorts(dc.Ports)
	}

	if dc.MeanIntervalUs != 0 {
		b = b.WithMeanIntervalUs(dc.MeanIntervalUs)
	}

	if dc.MinSizeBytes != 0 || dc.MaxSizeBytes != 0 {
		b = b.WithSizeRange(dc.MinSizeBytes, dc.MaxSizeBytes)
	}

	if dc.MessageType != "" {
		b = b.WithType(networking.MessageType(dc.MessageType))
	}

	return b.Build(dc.Name)
}

func (n *Network) buildLinks() error {
	for _, lc := range n.config.Links {
		a, err := n.port(lc.A)
		if err != nil {
			return err
		}

		b, err := n.port(lc.B)
		if err != nil {
			return err
		}

		l, err := networking.NewLink(n.simulation.GetEngine(),
			a, b, lc.Mbps, lc.PropagationDelayUs)
		if err != nil {
			return err
		}

		n.links = append(n.links, l)
	}

	return nil
}

func (n *Network) port(s string) (*networking.Port, error) {
	ref, err := ParsePortRef(s)
	if err != nil {
		return nil, err
	}

	d := n.devices[ref.Device]
	if ref.Index >= len(d.Ports()) {
		return nil, fmt.Errorf("topology: device %q has no port %d",
			ref.Device, ref.Index)
	}

	return d.Port(ref.Index), nil
}
