// Package frames extracts the three central orthogonal slices of volumes and
// collects them, in file then time order, into one frame stack.
package frames

import (
	"fmt"

	"github.com/mrsinham/slicemovie/internal/volume"
)

// View is one of the three orthogonal display views.
type View int

const (
	Sagittal View = iota
	Coronal
	Axial
)

// Views lists the views in panel order.
var Views = []View{Sagittal, Coronal, Axial}

func (v View) String() string {
	switch v {
	case Sagittal:
		return "Sagittal"
	case Coronal:
		return "Coronal"
	case Axial:
		return "Axial"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// Axis returns the volume axis held fixed by the view.
func (v View) Axis() volume.Axis {
	switch v {
	case Sagittal:
		return volume.AxisX
	case Coronal:
		return volume.AxisY
	default:
		return volume.AxisZ
	}
}

// Triplet holds the sagittal (Y, Z), coronal (X, Z) and axial (X, Y) planes
// of one volume.
type Triplet struct {
	Sagittal volume.Plane
	Coronal  volume.Plane
	Axial    volume.Plane
}

// Get returns the plane for view.
func (t Triplet) Get(v View) volume.Plane {
	switch v {
	case Sagittal:
		return t.Sagittal
	case Coronal:
		return t.Coronal
	default:
		return t.Axial
	}
}

// Midpoints returns dim/2 for each spatial axis. For even sizes this is the
// higher of the two central indices.
func Midpoints(shape []int) [3]int {
	return [3]int{shape[0] / 2, shape[1] / 2, shape[2] / 2}
}

// CentralSlices returns the planes through the centre of v at timepoint t.
// t must lie in [0, T) for 4D volumes and is ignored for 3D ones.
func CentralSlices(v volume.Volume, t int) (Triplet, error) {
	shape := v.Shape()
	if len(shape) != 3 && len(shape) != 4 {
		return Triplet{}, fmt.Errorf("central slices need a 3D or 4D volume, got shape %v", shape)
	}
	if len(shape) == 4 && (t < 0 || t >= shape[3]) {
		return Triplet{}, fmt.Errorf("timepoint %d out of range [0, %d)", t, shape[3])
	}

	mid := Midpoints(shape)
	var out Triplet
	for _, view := range Views {
		axis := view.Axis()
		p, err := volume.Section(v, axis, mid[axis], t)
		if err != nil {
			return Triplet{}, fmt.Errorf("%s slice at %v=%d: %w", view, axis, mid[axis], err)
		}
		switch view {
		case Sagittal:
			out.Sagittal = p
		case Coronal:
			out.Coronal = p
		case Axial:
			out.Axial = p
		}
	}
	return out, nil
}
