// Package topology describes networks in YAML or JSON files and builds them.
package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/ft4fttsim/ft4fttsim/ft4ftt"
	"gopkg.in/yaml.v3"
)

// Device kinds.
const (
	KindRecorder     = "recorder"
	KindEcho         = "echo"
	KindSwitch       = "switch"
	KindMaster       = "master"
	KindSlave        = "slave"
	KindFT4FTTSwitch = "ft4ftt_switch"
	KindRandomSource = "random_source"
)

// Routing modes.
const (
	RoutingAuto  = "auto"
	RoutingFlood = "flood"
)

// Config describes a network and how long to simulate it.
type Config struct {
	Name    string         `json:"name" yaml:"name"`
	UntilUs float64        `json:"until_us" yaml:"until_us"`
	Routing string         `json:"routing" yaml:"routing"`
	Devices []DeviceConfig `json:"devices" yaml:"devices"`
	Links   []LinkConfig   `json:"links" yaml:"links"`
}

// DeviceConfig describes one device. Which fields matter depends on the
// kind.
type DeviceConfig struct {
	Name  string `json:"name" yaml:"name"`
	Kind  string `json:"kind" yaml:"kind"`
	Ports int    `json:"ports" yaml:"ports"`

	// master, ft4ftt_switch
	Master *MasterConfig `json:"master,omitempty" yaml:"master,omitempty"`

	// slave
	SyncDestination        string `json:"sync_destination,omitempty" yaml:"sync_destination,omitempty"`
	SyncMessagesPerTrigger *int   `json:"sync_messages_per_trigger,omitempty" yaml:"sync_messages_per_trigger,omitempty"`

	// random_source
	Destination    []string `json:"destination,omitempty" yaml:"destination,omitempty"`
	Count          int      `json:"count,omitempty" yaml:"count,omitempty"`
	MeanIntervalUs float64  `json:"mean_interval_us,omitempty" yaml:"mean_interval_us,omitempty"`
	MinSizeBytes   int      `json:"min_size_bytes,omitempty" yaml:"min_size_bytes,omitempty"`
	MaxSizeBytes   int      `json:"max_size_bytes,omitempty" yaml:"max_size_bytes,omitempty"`
	MessageType    string   `json:"message_type,omitempty" yaml:"message_type,omitempty"`
}

// MasterConfig describes a master. For an ft4ftt_switch it describes the
// embedded master and Name is required; for a master device the device name
// is used.
type MasterConfig struct {
	Name             string                                     `json:"name,omitempty" yaml:"name,omitempty"`
	ECDurationUs     float64                                    `json:"ec_duration_us" yaml:"ec_duration_us"`
	TriggersPerEC    int                                        `json:"triggers_per_ec" yaml:"triggers_per_ec"`
	Slaves           []string                                   `json:"slaves" yaml:"slaves"`
	SyncRequirements map[ft4ftt.StreamID]ft4ftt.SyncStreamConfig `json:"sync_requirements,omitempty" yaml:"sync_requirements,omitempty"`
}

// LinkConfig describes a link between two ports, written as
// "<device>:<port index>".
type LinkConfig struct {
	A                  string  `json:"a" yaml:"a"`
	B                  string  `json:"b" yaml:"b"`
	Mbps               float64 `json:"mbps" yaml:"mbps"`
	PropagationDelayUs float64 `json:"propagation_delay_us" yaml:"propagation_delay_us"`
}

// PortRef points to a port of a device.
type PortRef struct {
	Device string
	Index  int
}

// ParsePortRef parses "<device>:<port index>".
func ParsePortRef(s string) (PortRef, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return PortRef{}, fmt.Errorf("topology: bad port reference %q", s)
	}

	idx, err := strconv.Atoi(s[i+1:])
	if err != nil || idx < 0 {
		return PortRef{}, fmt.Errorf("topology: bad port index in %q", s)
	}

	return PortRef{Device: s[:i], Index: idx}, nil
}

// ReadConfig reads a configuration file. Files ending in .json are decoded
// as JSON, anything else as YAML.
func ReadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(filename))

	return ParseConfig(data, ext == ".json")
}

// ParseConfig decodes and validates a configuration. Unknown fields are
// errors.
func ParseConfig(data []byte, useJSON bool) (*Config, error) {
	cfg := &Config{}

	if useJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("topology: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("topology: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks names, kinds, port counts, references and link endpoints.
// The remaining numeric ranges are checked by the device builders.
func (c *Config) Validate() error {
	if c.Routing == "" {
		c.Routing = RoutingAuto
	}

	if c.Routing != RoutingAuto && c.Routing != RoutingFlood {
		return fmt.Errorf("topology: unknown routing %q", c.Routing)
	}

	if c.UntilUs < 0 {
		return fmt.Errorf("topology: until_us must not be negative")
	}

	names := make(map[string]*DeviceConfig)
	addName := func(name string, d *DeviceConfig) error {
		if name == "" {
			return fmt.Errorf("topology: device without a name")
		}

		if _, found := names[name]; found {
			return fmt.Errorf("topology: duplicate device name %q", name)
		}

		names[name] = d

		return nil
	}

	for i := range c.Devices {
		d := &c.Devices[i]
		if err := addName(d.Name, d); err != nil {
			return err
		}

		if err := d.validateKind(); err != nil {
			return err
		}

		if d.Kind == KindFT4FTTSwitch {
			if err := addName(d.Master.Name, d); err != nil {
				return err
			}
		}
	}

	for _, d := range c.Devices {
		for _, ref := range d.references() {
			if _, found := names[ref]; !found {
				return fmt.Errorf("topology: device %q refers to unknown "+
					"device %q", d.Name, ref)
			}
		}
	}

	for _, l := range c.Links {
		for _, end := range []string{l.A, l.B} {
			ref, err := ParsePortRef(end)
			if err != nil {
				return err
			}

			if _, found := names[ref.Device]; !found {
				return fmt.Errorf("topology: link %s-%s refers to unknown "+
					"device %q", l.A, l.B, ref.Device)
			}
		}
	}

	return nil
}

func (d *DeviceConfig) validateKind() error {
	if d.Ports < 0 {
		return fmt.Errorf("topology: device %q cannot have %d ports",
			d.Name, d.Ports)
	}

	switch d.Kind {
	case KindRecorder, KindEcho, KindSwitch, KindSlave:
		return nil
	case KindMaster:
		if d.Master == nil {
			d.Master = &MasterConfig{}
		}

		return nil
	case KindFT4FTTSwitch:
		if d.Master == nil || d.Master.Name == "" {
			return fmt.Errorf("topology: ft4ftt_switch %q needs a named "+
				"master", d.Name)
		}

		return nil
	case KindRandomSource:
		if len(d.Destination) == 0 {
			return fmt.Errorf("topology: random_source %q needs a "+
				"destination", d.Name)
		}

		return nil
	default:
		return fmt.Errorf("topology: device %q has unknown kind %q",
			d.Name, d.Kind)
	}
}

// references returns the names of the devices this device addresses.
func (d DeviceConfig) references() []string {
	var refs []string

	if d.Master != nil {
		refs = append(refs, d.Master.Slaves...)
	}

	if d.SyncDestination != "" {
		refs = append(refs, d.SyncDestination)
	}

	return append(refs, d.Destination...)
}
