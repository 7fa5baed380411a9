package volume

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// sampleType is the on-disk encoding of one voxel.
type sampleType int

const (
	uint8Sample sampleType = iota + 1
	int8Sample
	int16Sample
	uint16Sample
	int32Sample
	uint32Sample
	int64Sample
	uint64Sample
	float32Sample
	float64Sample
)

func (s sampleType) size() int {
	switch s {
	case uint8Sample, int8Sample:
		return 1
	case int16Sample, uint16Sample:
		return 2
	case int32Sample, uint32Sample, float32Sample:
		return 4
	default:
		return 8
	}
}

func (s sampleType) String() string {
	switch s {
	case uint8Sample:
		return "uint8"
	case int8Sample:
		return "int8"
	case int16Sample:
		return "int16"
	case uint16Sample:
		return "uint16"
	case int32Sample:
		return "int32"
	case uint32Sample:
		return "uint32"
	case int64Sample:
		return "int64"
	case uint64Sample:
		return "uint64"
	case float32Sample:
		return "float32"
	case float64Sample:
		return "float64"
	default:
		return fmt.Sprintf("sampleType(%d)", int(s))
	}
}

func (s sampleType) decode(b []byte, order binary.ByteOrder) float64 {
	switch s {
	case uint8Sample:
		return float64(b[0])
	case int8Sample:
		return float64(int8(b[0]))
	case int16Sample:
		return float64(int16(order.Uint16(b)))
	case uint16Sample:
		return float64(order.Uint16(b))
	case int32Sample:
		return float64(int32(order.Uint32(b)))
	case uint32Sample:
		return float64(order.Uint32(b))
	case int64Sample:
		return float64(int64(order.Uint64(b)))
	case uint64Sample:
		return float64(order.Uint64(b))
	case float32Sample:
		return float64(math.Float32frombits(order.Uint32(b)))
	default:
		return math.Float64frombits(order.Uint64(b))
	}
}

// scaling is a linear intensity transform applied after decoding.
type scaling struct {
	slope float64
	inter float64
}

var identity = scaling{slope: 1}

func (s scaling) apply(v float64) float32 {
	return float32(v*s.slope + s.inter)
}

// rawVolume reads an uncompressed X-fastest sample array at a fixed offset.
type rawVolume struct {
	r      io.ReaderAt
	closer io.Closer
	shape  []int
	offset int64
	sample sampleType
	order  binary.ByteOrder
	scale  scaling
	lazy   bool

	mem *Memory
}

// newRawVolume validates that size bytes are enough to hold the samples.
func newRawVolume(r io.ReaderAt, closer io.Closer, size int64, shape []int, offset int64,
	sample sampleType, order binary.ByteOrder, scale scaling, lazy bool) (*rawVolume, error) {

	need := offset + int64(numSamples(shape))*int64(sample.size())
	if size < need {
		return nil, fmt.Errorf("truncated data: need %d bytes, have %d", need, size)
	}
	return &rawVolume{
		r:      r,
		closer: closer,
		shape:  append([]int(nil), shape...),
		offset: offset,
		sample: sample,
		order:  order,
		scale:  scale,
		lazy:   lazy,
	}, nil
}

func (v *rawVolume) Shape() []int {
	return append([]int(nil), v.shape...)
}

func (v *rawVolume) NDim() int {
	return len(v.shape)
}

func (v *rawVolume) SupportsLazySlice(axis Axis, index int) bool {
	return v.lazy
}

// decodeRun decodes len(dst) consecutive samples from buf.
func (v *rawVolume) decodeRun(dst []float32, buf []byte) {
	sz := v.sample.size()
	for i := range dst {
		dst[i] = v.scale.apply(v.sample.decode(buf[i*sz:], v.order))
	}
}

func (v *rawVolume) readAt(buf []byte, sample int64) error {
	n, err := v.r.ReadAt(buf, v.offset+sample*int64(v.sample.size()))
	if err == io.EOF && n == len(buf) {
		err = nil
	}
	return err
}

// Plane reads only the bytes needed for one plane. Fixing Z reads one
// contiguous block, fixing Y reads one row per Z and fixing X reads one XY
// plane per Z and keeps a single column of it.
func (v *rawVolume) Plane(axis Axis, index, t int) (Plane, error) {
	t, err := checkPlane(v.shape, axis, index, t)
	if err != nil {
		return Plane{}, err
	}
	nx, ny, nz := v.shape[0], v.shape[1], v.shape[2]
	sz := v.sample.size()
	base := int64(t) * int64(nx*ny*nz)
	rows, cols := planeShape(v.shape, axis)
	p := NewPlane(rows, cols)

	switch axis {
	case AxisZ:
		buf := make([]byte, nx*ny*sz)
		if err := v.readAt(buf, base+int64(index*nx*ny)); err != nil {
			return Plane{}, fmt.Errorf("read axial plane %d: %w", index, err)
		}
		run := make([]float32, nx*ny)
		v.decodeRun(run, buf)
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				p.Data[x*ny+y] = run[y*nx+x]
			}
		}
	case AxisY:
		buf := make([]byte, nx*sz)
		run := make([]float32, nx)
		for z := 0; z < nz; z++ {
			if err := v.readAt(buf, base+int64(z*nx*ny+index*nx)); err != nil {
				return Plane{}, fmt.Errorf("read row y=%d z=%d: %w", index, z, err)
			}
			v.decodeRun(run, buf)
			for x := 0; x < nx; x++ {
				p.Data[x*nz+z] = run[x]
			}
		}
	case AxisX:
		buf := make([]byte, nx*ny*sz)
		for z := 0; z < nz; z++ {
			if err := v.readAt(buf, base+int64(z*nx*ny)); err != nil {
				return Plane{}, fmt.Errorf("read plane z=%d: %w", z, err)
			}
			for y := 0; y < ny; y++ {
				off := (y*nx + index) * sz
				p.Data[y*nz+z] = v.scale.apply(v.sample.decode(buf[off:off+sz], v.order))
			}
		}
	}
	return p, nil
}

func (v *rawVolume) Load() (*Memory, error) {
	if v.mem != nil {
		return v.mem, nil
	}
	n := numSamples(v.shape)
	data := make([]float32, n)

	// Decode one 3D frame at a time to bound the raw byte buffer.
	perFrame := n / frameCount(v.shape)
	buf := make([]byte, perFrame*v.sample.size())
	for f := 0; f < frameCount(v.shape); f++ {
		if err := v.readAt(buf, int64(f*perFrame)); err != nil {
			return nil, fmt.Errorf("read frame %d: %w", f, err)
		}
		v.decodeRun(data[f*perFrame:(f+1)*perFrame], buf)
	}

	m, err := NewMemory(v.shape, data)
	if err != nil {
		return nil, err
	}
	v.mem = m
	return m, nil
}

func (v *rawVolume) Close() error {
	v.mem = nil
	if v.closer == nil {
		return nil
	}
	return v.closer.Close()
}
