// Package volume opens 3D and 4D volumetric images and reads 2D planes from them.
//
// Samples are addressed in storage order, X fastest, then Y, Z and time.
// Formats that support random access (uncompressed NIfTI-1 and MGH) read
// planes straight from disk; compressed files and DICOM are decoded into
// memory once and sliced there.
package volume

import (
	"fmt"
)

// Axis is a spatial axis of a volume.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Volume is an open handle on a volumetric image.
type Volume interface {
	// Shape returns the size of every dimension, spatial axes first.
	Shape() []int
	// NDim returns len(Shape()).
	NDim() int
	// SupportsLazySlice reports whether Plane reads the requested plane
	// without decoding the whole volume.
	SupportsLazySlice(axis Axis, index int) bool
	// Plane returns the plane at index along axis for timepoint t.
	// t is ignored for 3D volumes.
	Plane(axis Axis, index, t int) (Plane, error)
	// Load decodes the entire volume. Implementations may cache the result
	// until Close.
	Load() (*Memory, error)
	Close() error
}

// Section returns a plane of v, reading it lazily when v supports that and
// falling back to a full in-memory load otherwise.
func Section(v Volume, axis Axis, index, t int) (Plane, error) {
	if v.SupportsLazySlice(axis, index) {
		return v.Plane(axis, index, t)
	}
	m, err := v.Load()
	if err != nil {
		return Plane{}, err
	}
	return m.Plane(axis, index, t)
}

// Plane is a 2D row-major array of samples.
type Plane struct {
	Rows int
	Cols int
	Data []float32
}

// NewPlane allocates a zeroed plane.
func NewPlane(rows, cols int) Plane {
	return Plane{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// At returns the sample at row r, column c.
func (p Plane) At(r, c int) float32 {
	return p.Data[r*p.Cols+c]
}

// Set stores v at row r, column c.
func (p Plane) Set(r, c int, v float32) {
	p.Data[r*p.Cols+c] = v
}

// Shape returns (rows, cols).
func (p Plane) Shape() (int, int) {
	return p.Rows, p.Cols
}

// Transpose returns a new plane with rows and columns swapped.
func (p Plane) Transpose() Plane {
	out := NewPlane(p.Cols, p.Rows)
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			out.Data[c*out.Cols+r] = p.Data[r*p.Cols+c]
		}
	}
	return out
}

// planeShape returns the plane dimensions obtained by fixing axis. The
// remaining spatial axes keep their order: fixing X gives (Y, Z), fixing Y
// gives (X, Z) and fixing Z gives (X, Y).
func planeShape(shape []int, axis Axis) (rows, cols int) {
	switch axis {
	case AxisX:
		return shape[1], shape[2]
	case AxisY:
		return shape[0], shape[2]
	default:
		return shape[0], shape[1]
	}
}

// checkPlane validates a plane request against shape and returns the
// effective timepoint.
func checkPlane(shape []int, axis Axis, index, t int) (int, error) {
	if len(shape) < 3 {
		return 0, fmt.Errorf("volume has %d dimensions, need at least 3", len(shape))
	}
	if axis < AxisX || axis > AxisZ {
		return 0, fmt.Errorf("invalid axis %v", axis)
	}
	if index < 0 || index >= shape[axis] {
		return 0, fmt.Errorf("index %d out of range for axis %v of size %d", index, axis, shape[axis])
	}
	if len(shape) < 4 {
		return 0, nil
	}
	if t < 0 || t >= shape[3] {
		return 0, fmt.Errorf("timepoint %d out of range [0, %d)", t, shape[3])
	}
	return t, nil
}

// numSamples returns the product of shape.
func numSamples(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// frameCount returns the number of 3D frames in shape. Dimensions past the
// third are flattened.
func frameCount(shape []int) int {
	if len(shape) <= 3 {
		return 1
	}
	return numSamples(shape[3:])
}
