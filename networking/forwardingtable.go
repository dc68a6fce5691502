package networking

// A ForwardingTable maps destination devices to the switch ports that lead
// to them.
type ForwardingTable struct {
	entries map[Device][]*Port
	order   []Device
}

// NewForwardingTable creates an empty table.
func NewForwardingTable() *ForwardingTable {
	return &ForwardingTable{
		entries: make(map[Device][]*Port),
	}
}

// DefineRoute sets the ports that lead to the device, replacing any earlier
// entry. Repeated ports are only kept once.
func (t *ForwardingTable) DefineRoute(dst Device, ports ...*Port) {
	if _, found := t.entries[dst]; !found {
		t.order = append(t.order, dst)
	}

	var set []*Port
	for _, p := range ports {
		if !containsPort(set, p) {
			set = append(set, p)
		}
	}

	t.entries[dst] = set
}

// FindPorts returns the ports that lead to the device. The second return
// value is false if the table has no entry for the device.
func (t *ForwardingTable) FindPorts(dst Device) ([]*Port, bool) {
	ports, found := t.entries[dst]
	if !found {
		return nil, false
	}

	return append([]*Port(nil), ports...), true
}

// RemoveRoute deletes the entry of the device.
func (t *ForwardingTable) RemoveRoute(dst Device) {
	if _, found := t.entries[dst]; !found {
		return
	}

	delete(t.entries, dst)

	for i, d := range t.order {
		if d == dst {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (t *ForwardingTable) Len() int {
	return len(t.entries)
}

// Destinations returns the devices with an entry, in insertion order.
func (t *ForwardingTable) Destinations() []Device {
	return append([]Device(nil), t.order...)
}

func containsPort(ports []*Port, p *Port) bool {
	for _, q := range ports {
		if q == p {
			return true
		}
	}

	return false
}
