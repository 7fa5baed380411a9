package volume

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Format identifies a supported file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatNIfTI
	FormatNIfTIGz
	FormatMGH
	FormatMGZ
	FormatDICOM
)

func (f Format) String() string {
	switch f {
	case FormatNIfTI:
		return "nifti"
	case FormatNIfTIGz:
		return "nifti-gz"
	case FormatMGH:
		return "mgh"
	case FormatMGZ:
		return "mgz"
	case FormatDICOM:
		return "dicom"
	default:
		return "unknown"
	}
}

// FormatOf returns the format implied by the file name.
func FormatOf(path string) Format {
	name := strings.ToLower(path)
	switch {
	case strings.HasSuffix(name, ".nii.gz"):
		return FormatNIfTIGz
	case strings.HasSuffix(name, ".nii"):
		return FormatNIfTI
	case strings.HasSuffix(name, ".mgz"), strings.HasSuffix(name, ".mgh.gz"):
		return FormatMGZ
	case strings.HasSuffix(name, ".mgh"):
		return FormatMGH
	case strings.HasSuffix(name, ".dcm"), strings.HasSuffix(name, ".dicom"), strings.HasSuffix(name, ".ima"):
		return FormatDICOM
	default:
		return FormatUnknown
	}
}

// IsSupported reports whether path has a recognized volume extension.
func IsSupported(path string) bool {
	return FormatOf(path) != FormatUnknown
}

// Open opens a 3D or 4D volume. Decoding failures are returned as
// *LoadError and other dimensionalities as *UnsupportedDimensionalityError.
func Open(path string) (Volume, error) {
	format := FormatOf(path)
	if format == FormatUnknown {
		ok, err := sniffDICOM(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		if !ok {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("unrecognized volume format")}
		}
		format = FormatDICOM
	}

	var (
		v   Volume
		err error
	)
	switch format {
	case FormatNIfTI:
		v, err = openNIfTI(path)
	case FormatNIfTIGz:
		v, err = openNIfTIGz(path)
	case FormatMGH:
		v, err = openMGH(path)
	case FormatMGZ:
		v, err = openMGZ(path)
	case FormatDICOM:
		v, err = openDICOM(path)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	if nd := v.NDim(); nd != 3 && nd != 4 {
		shape := v.Shape()
		_ = v.Close()
		return nil, &UnsupportedDimensionalityError{Path: path, NDim: nd, Shape: shape}
	}
	return v, nil
}

// sniffDICOM checks for the "DICM" magic after the 128-byte preamble.
func sniffDICOM(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 132)
	if _, err := io.ReadFull(f, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(buf[128:], []byte("DICM")), nil
}
