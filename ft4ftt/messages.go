// Package ft4ftt models the Flexible Time-Triggered protocol on top of the
// Ethernet network model: a master that divides time into elementary cycles
// and triggers the slaves, and a switch that embeds the master.
package ft4ftt

import "github.com/ft4fttsim/ft4fttsim/networking"

// The message types used by the protocol.
const (
	MessageTypeTrigger       networking.MessageType = "TM"
	MessageTypeUpdateRequest networking.MessageType = "Update Req."
	MessageTypeSync          networking.MessageType = "sync"
)

// StreamID identifies a synchronous stream.
type StreamID string

// SyncStreamConfig describes the timing requirements of a synchronous
// stream, in elementary cycles.
type SyncStreamConfig struct {
	TransmissionTimeECs int `yaml:"transmission_time_ecs" json:"transmission_time_ecs"`
	DeadlineECs         int `yaml:"deadline_ecs" json:"deadline_ecs"`
	PeriodECs           int `yaml:"period_ecs" json:"period_ecs"`
	OffsetECs           int `yaml:"offset_ecs" json:"offset_ecs"`
}

// UpdateRequest is the payload of an update request message.
type UpdateRequest struct {
	StreamID StreamID
	Config   SyncStreamConfig
}

// TriggerData is the payload of a trigger message.
type TriggerData struct {
	// EC is the 1-based number of the elementary cycle the trigger belongs
	// to.
	EC int
}
