// Package synth generates synthetic volumes and writes them in the formats
// the volume package reads.
package synth

import (
	"bufio"
	"fmt"
	"io"
	"math"
	randv2 "math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/mrsinham/slicemovie/internal/volume"
)

// Brain-like intensity range of the phantom.
const (
	baseValue  = 100.0
	valueRange = 1000.0
)

// Phantom returns X-fastest samples of a brain-like phantom: intensity falls
// off radially from the centre of each volume with three bands of seeded
// noise on top. Each timepoint gets its own noise and a small global drift.
func Phantom(shape []int, seed int64) ([]float32, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	nx, ny, nz := shape[0], shape[1], shape[2]
	nt := 1
	if len(shape) == 4 {
		nt = shape[3]
	}

	cx, cy, cz := float64(nx)/2, float64(ny)/2, float64(nz)/2
	maxDist := math.Sqrt(cx*cx + cy*cy + cz*cz)

	data := make([]float32, nx*ny*nz*nt)
	i := 0
	for t := 0; t < nt; t++ {
		s := uint64(seed) + uint64(t)
		rng := randv2.New(randv2.NewPCG(s, s))
		drift := 1 + 0.02*math.Sin(float64(t))

		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					dx, dy, dz := float64(x)-cx, float64(y)-cy, float64(z)-cz
					dist := math.Sqrt(dx*dx+dy*dy+dz*dz) / maxDist
					intensity := baseValue + (1.0-dist)*valueRange*0.3

					largeNoise := (rng.Float64() - 0.5) * valueRange * 0.3
					mediumNoise := (rng.Float64() - 0.5) * valueRange * 0.15
					fineNoise := (rng.Float64() - 0.5) * valueRange * 0.075

					v := (intensity + largeNoise + mediumNoise + fineNoise) * drift
					data[i] = float32(math.Max(0, v))
					i++
				}
			}
		}
	}
	return data, nil
}

// Constant returns a volume whose samples all equal v.
func Constant(shape []int, v float32) ([]float32, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = v
	}
	return data, nil
}

func checkShape(shape []int) error {
	if len(shape) != 3 && len(shape) != 4 {
		return fmt.Errorf("shape must have 3 or 4 dimensions, got %v", shape)
	}
	for _, d := range shape {
		if d <= 0 {
			return fmt.Errorf("invalid shape %v", shape)
		}
	}
	return nil
}

// ParseShape parses "X,Y,Z" or "X,Y,Z,T".
func ParseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	shape := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid shape %q: %w", s, err)
		}
		shape = append(shape, d)
	}
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	return shape, nil
}

// Write stores data in the format implied by the extension of path:
// .nii and .nii.gz as NIfTI-1, .mgh and .mgz as MGH, .dcm as a multi-frame
// DICOM file (3D only).
func Write(path string, shape []int, data []float32, opts volume.WriteOptions) error {
	var encode func(io.Writer) error
	format := volume.FormatOf(path)
	switch format {
	case volume.FormatNIfTI, volume.FormatNIfTIGz:
		encode = func(w io.Writer) error { return volume.EncodeNIfTI(w, shape, data, opts) }
	case volume.FormatMGH, volume.FormatMGZ:
		encode = func(w io.Writer) error { return volume.EncodeMGH(w, shape, data) }
	case volume.FormatDICOM:
		encode = func(w io.Writer) error { return volume.EncodeDICOM(w, shape, data) }
	default:
		return fmt.Errorf("unsupported output format for %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	bw := bufio.NewWriter(f)
	if format == volume.FormatNIfTIGz || format == volume.FormatMGZ {
		zw := gzip.NewWriter(bw)
		if err := encode(zw); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
	} else if err := encode(bw); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}
