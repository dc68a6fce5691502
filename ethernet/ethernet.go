// Package ethernet defines the Ethernet framing constants used to compute
// how long frames occupy a link.
package ethernet

// Frame field sizes in bytes.
const (
	PreambleSizeBytes   = 7
	SFDSizeBytes        = 1
	MACAddressSizeBytes = 6
	EthertypeSizeBytes  = 2
	FCSSizeBytes        = 4
	IFGSizeBytes        = 12

	MinPayloadSizeBytes = 46
	MaxPayloadSizeBytes = 1500
)

// HeaderSizeBytes is the size of the destination and source MAC addresses
// plus the ethertype.
const HeaderSizeBytes = 2*MACAddressSizeBytes + EthertypeSizeBytes

// Frame size limits in bytes, preamble and SFD excluded.
const (
	MinFrameSizeBytes = HeaderSizeBytes + MinPayloadSizeBytes + FCSSizeBytes
	MaxFrameSizeBytes = HeaderSizeBytes + MaxPayloadSizeBytes + FCSSizeBytes
)

// IsValidFrameSize tells if a frame of the given size can be sent.
func IsValidFrameSize(sizeBytes int) bool {
	return sizeBytes >= MinFrameSizeBytes && sizeBytes <= MaxFrameSizeBytes
}

// TransmissionTimeUs returns the time, in microseconds, needed to serialize
// numBytes on a link of the given speed in megabits per second.
func TransmissionTimeUs(numBytes int, mbps float64) float64 {
	return float64(numBytes) * 8 / mbps
}

// FrameTransmissionTimeUs returns the serialization time of a frame,
// including preamble and SFD.
func FrameTransmissionTimeUs(frameSizeBytes int, mbps float64) float64 {
	return TransmissionTimeUs(
		PreambleSizeBytes+SFDSizeBytes+frameSizeBytes, mbps)
}

// IFGTimeUs returns the duration of the interframe gap.
func IFGTimeUs(mbps float64) float64 {
	return TransmissionTimeUs(IFGSizeBytes, mbps)
}
