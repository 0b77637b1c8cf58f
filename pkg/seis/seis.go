// Package seis implements the SEIS container format.
//
// SEIS is a single-file, memory-mappable container for the arrays a
// full-waveform-inversion run exchanges with the outside world:
// velocity models, observed shot gathers with their acquisition
// metadata, and gradient/illumination outputs. It describes data only
// and never implies solver behaviour.
package seis

// SEIS global constants must never change.
const (
	// MagicSEIS is the file magic for all SEIS containers, encoded as
	// "SEIS".
	MagicSEIS = "SEIS"

	// CurrentMajor: any change indicates a breaking format change.
	CurrentMajor uint16 = 1

	// CurrentMinor: versions may add new optional sections or fields.
	CurrentMinor uint16 = 0
)

type SectionType uint32

const (
	SectionVelocityModel SectionType = 0x0001
	SectionAcquisition   SectionType = 0x0002
	SectionShotData      SectionType = 0x0003
	SectionGradient      SectionType = 0x0004
	SectionIllumination  SectionType = 0x0005
)

type Header struct {
	Magic            [4]byte
	Major            uint16
	Minor            uint16
	HeaderSize       uint32
	SectionCount     uint32
	SectionDirOffset uint64
	FileSize         uint64
	Flags            uint64
}

type Section struct {
	Type    uint32
	Version uint32
	Offset  uint64
	Size    uint64
}

// End returns the first byte past the section payload.
func (s *Section) End() uint64 { return s.Offset + s.Size }

func (h *Header) Valid() bool {
	if string(h.Magic[:]) != MagicSEIS {
		return false
	}
	if h.HeaderSize < headerSize {
		return false
	}
	return h.SectionCount > 0
}

func (h *Header) Compatible() bool { return h.Major == CurrentMajor }
