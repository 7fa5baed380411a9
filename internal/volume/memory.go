package volume

import "fmt"

// Memory is a fully decoded volume.
type Memory struct {
	shape []int
	data  []float32
}

// NewMemory wraps data, stored X fastest, as a volume of the given shape.
func NewMemory(shape []int, data []float32) (*Memory, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("empty shape")
	}
	for i, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("invalid size %d for dimension %d", d, i)
		}
	}
	if n := numSamples(shape); n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d samples, got %d", shape, n, len(data))
	}
	return &Memory{shape: append([]int(nil), shape...), data: data}, nil
}

func (m *Memory) Shape() []int {
	return append([]int(nil), m.shape...)
}

func (m *Memory) NDim() int {
	return len(m.shape)
}

// Data returns the backing samples.
func (m *Memory) Data() []float32 {
	return m.data
}

// At returns the sample at (x, y, z, t). t is ignored for 3D volumes.
func (m *Memory) At(x, y, z, t int) float32 {
	nx, ny, nz := m.shape[0], m.shape[1], m.shape[2]
	if len(m.shape) < 4 {
		t = 0
	}
	return m.data[x+nx*(y+ny*(z+nz*t))]
}

func (m *Memory) SupportsLazySlice(Axis, int) bool {
	return true
}

func (m *Memory) Plane(axis Axis, index, t int) (Plane, error) {
	t, err := checkPlane(m.shape, axis, index, t)
	if err != nil {
		return Plane{}, err
	}
	nx, ny, nz := m.shape[0], m.shape[1], m.shape[2]
	base := t * nx * ny * nz
	rows, cols := planeShape(m.shape, axis)
	p := NewPlane(rows, cols)

	switch axis {
	case AxisX:
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				p.Data[y*nz+z] = m.data[base+index+nx*(y+ny*z)]
			}
		}
	case AxisY:
		for x := 0; x < nx; x++ {
			for z := 0; z < nz; z++ {
				p.Data[x*nz+z] = m.data[base+x+nx*(index+ny*z)]
			}
		}
	case AxisZ:
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				p.Data[x*ny+y] = m.data[base+x+nx*(y+ny*index)]
			}
		}
	}
	return p, nil
}

func (m *Memory) Load() (*Memory, error) {
	return m, nil
}

func (m *Memory) Close() error {
	return nil
}
