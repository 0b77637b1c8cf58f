package seis

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Array payloads are stored as little-endian float32, the native
// precision of recorded seismic data; the solver widens to float64 on
// load.

// GridData is a decoded 2-D array payload: a velocity model, gradient
// or illumination map on the interior grid, column-linearised with
// depth fastest (index z + nz*x).
type GridData struct {
	Nz, Nx int
	Dz, Dx float64
	Data   []float64
}

const gridPayloadHeader = 4 + 4 + 8 + 8

// EncodeGrid serialises a GridData payload.
func EncodeGrid(gd *GridData) ([]byte, error) {
	if gd.Nz <= 0 || gd.Nx <= 0 {
		return nil, fmt.Errorf("seis: non-positive grid dims %dx%d", gd.Nz, gd.Nx)
	}
	if len(gd.Data) != gd.Nz*gd.Nx {
		return nil, fmt.Errorf("seis: grid payload has %d values, want %d", len(gd.Data), gd.Nz*gd.Nx)
	}
	out := make([]byte, gridPayloadHeader+4*len(gd.Data))
	binary.LittleEndian.PutUint32(out[0:4], uint32(gd.Nz))
	binary.LittleEndian.PutUint32(out[4:8], uint32(gd.Nx))
	binary.LittleEndian.PutUint64(out[8:16], math.Float64bits(gd.Dz))
	binary.LittleEndian.PutUint64(out[16:24], math.Float64bits(gd.Dx))
	for i, v := range gd.Data {
		binary.LittleEndian.PutUint32(out[gridPayloadHeader+4*i:], math.Float32bits(float32(v)))
	}
	return out, nil
}

// DecodeGrid parses a 2-D array payload.
func DecodeGrid(b []byte) (*GridData, error) {
	if len(b) < gridPayloadHeader {
		return nil, fmt.Errorf("%w: short grid payload", ErrCorruptFile)
	}
	gd := &GridData{
		Nz: int(binary.LittleEndian.Uint32(b[0:4])),
		Nx: int(binary.LittleEndian.Uint32(b[4:8])),
		Dz: math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
		Dx: math.Float64frombits(binary.LittleEndian.Uint64(b[16:24])),
	}
	if gd.Nz <= 0 || gd.Nx <= 0 {
		return nil, fmt.Errorf("%w: grid dims %dx%d", ErrCorruptFile, gd.Nz, gd.Nx)
	}
	n := gd.Nz * gd.Nx
	if len(b) != gridPayloadHeader+4*n {
		return nil, fmt.Errorf("%w: grid payload %d bytes, want %d", ErrCorruptFile, len(b), gridPayloadHeader+4*n)
	}
	gd.Data = make([]float64, n)
	for i := range gd.Data {
		gd.Data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[gridPayloadHeader+4*i:])))
	}
	return gd, nil
}

// Acquisition carries the survey metadata for a shot-gather file.
// Positions and jumps are interior grid indices; Dt is in seconds, Fm
// in Hz.
type Acquisition struct {
	Ns, Ng, Nt int
	Nb         int
	CSDGather  bool
	Dt         float64
	Amp        float64
	Fm         float64

	SzBeg, SxBeg, Jsz, Jsx int
	GzBeg, GxBeg, Jgz, Jgx int
}

const acquisitionPayloadSize = 5*4 + 3*8 + 8*4

// EncodeAcquisition serialises the acquisition metadata.
func EncodeAcquisition(a *Acquisition) ([]byte, error) {
	if a.Ns <= 0 || a.Ng <= 0 || a.Nt <= 0 {
		return nil, fmt.Errorf("seis: non-positive acquisition counts ns=%d ng=%d nt=%d", a.Ns, a.Ng, a.Nt)
	}
	if a.Nb < 0 {
		return nil, fmt.Errorf("seis: negative border width %d", a.Nb)
	}
	if a.Dt <= 0 {
		return nil, fmt.Errorf("seis: non-positive sampling interval %g", a.Dt)
	}
	out := make([]byte, acquisitionPayloadSize)
	u32 := func(off, v int) { binary.LittleEndian.PutUint32(out[off:], uint32(v)) }
	f64 := func(off int, v float64) { binary.LittleEndian.PutUint64(out[off:], math.Float64bits(v)) }
	i32 := func(off, v int) { binary.LittleEndian.PutUint32(out[off:], uint32(int32(v))) }

	u32(0, a.Ns)
	u32(4, a.Ng)
	u32(8, a.Nt)
	u32(12, a.Nb)
	flag := 0
	if a.CSDGather {
		flag = 1
	}
	u32(16, flag)
	f64(20, a.Dt)
	f64(28, a.Amp)
	f64(36, a.Fm)
	i32(44, a.SzBeg)
	i32(48, a.SxBeg)
	i32(52, a.Jsz)
	i32(56, a.Jsx)
	i32(60, a.GzBeg)
	i32(64, a.GxBeg)
	i32(68, a.Jgz)
	i32(72, a.Jgx)
	return out, nil
}

// DecodeAcquisition parses acquisition metadata.
func DecodeAcquisition(b []byte) (*Acquisition, error) {
	if len(b) != acquisitionPayloadSize {
		return nil, fmt.Errorf("%w: acquisition payload %d bytes, want %d", ErrCorruptFile, len(b), acquisitionPayloadSize)
	}
	u32 := func(off int) int { return int(binary.LittleEndian.Uint32(b[off:])) }
	f64 := func(off int) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b[off:])) }
	i32 := func(off int) int { return int(int32(binary.LittleEndian.Uint32(b[off:]))) }

	a := &Acquisition{
		Ns:        u32(0),
		Ng:        u32(4),
		Nt:        u32(8),
		Nb:        u32(12),
		CSDGather: u32(16) != 0,
		Dt:        f64(20),
		Amp:       f64(28),
		Fm:        f64(36),
		SzBeg:     i32(44),
		SxBeg:     i32(48),
		Jsz:       i32(52),
		Jsx:       i32(56),
		GzBeg:     i32(60),
		GxBeg:     i32(64),
		Jgz:       i32(68),
		Jgx:       i32(72),
	}
	if a.Ns <= 0 || a.Ng <= 0 || a.Nt <= 0 || a.Dt <= 0 {
		return nil, fmt.Errorf("%w: invalid acquisition metadata", ErrCorruptFile)
	}
	return a, nil
}

// Gather is a zero-copy view over the shot-data section: Ns shots of
// Nt time steps of Ng receiver samples each.
type Gather struct {
	raw        []byte
	Ns, Nt, Ng int
}

// NewGather validates the shot-data payload length against the
// acquisition metadata.
func NewGather(raw []byte, a *Acquisition) (*Gather, error) {
	want := 4 * a.Ns * a.Nt * a.Ng
	if len(raw) != want {
		return nil, fmt.Errorf("%w: shot data %d bytes, want %d", ErrCorruptFile, len(raw), want)
	}
	return &Gather{raw: raw, Ns: a.Ns, Nt: a.Nt, Ng: a.Ng}, nil
}

// Trace decodes the Ng samples of shot is at time step it into out.
func (g *Gather) Trace(is, it int, out []float64) {
	base := 4 * (is*g.Nt*g.Ng + it*g.Ng)
	for i := 0; i < g.Ng; i++ {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(g.raw[base+4*i:])))
	}
}

// EncodeGather serialises ns*nt*ng samples laid out shot-major.
func EncodeGather(data []float64, a *Acquisition) ([]byte, error) {
	want := a.Ns * a.Nt * a.Ng
	if len(data) != want {
		return nil, fmt.Errorf("seis: gather has %d samples, want %d", len(data), want)
	}
	out := make([]byte, 4*want)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(v)))
	}
	return out, nil
}
