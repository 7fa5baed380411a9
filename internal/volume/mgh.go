package volume

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// mghDataOffset is where FreeSurfer MGH voxel data starts.
const mghDataOffset = 284

// MGH voxel type codes.
const (
	mriUchar = 0
	mriInt   = 1
	mriFloat = 3
	mriShort = 4
)

// mghHeader is the fixed big-endian prefix of an MGH file.
type mghHeader struct {
	Version int32
	Width   int32
	Height  int32
	Depth   int32
	NFrames int32
	Type    int32
	DOF     int32
	GoodRAS int16
	Spacing [3]float32
	Mdc     [9]float32
	CRAS    [3]float32
}

func readMGHHeader(r io.Reader) (*mghHeader, error) {
	var hdr mghHeader
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if hdr.Version != 1 {
		return nil, fmt.Errorf("unsupported MGH version %d", hdr.Version)
	}
	return &hdr, nil
}

// shape returns (w, h, d) or (w, h, d, nframes) when there is more than one
// frame.
func (h *mghHeader) shape() ([]int, error) {
	dims := []int{int(h.Width), int(h.Height), int(h.Depth), int(h.NFrames)}
	for i, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("invalid dimension %d: %d", i, d)
		}
	}
	if dims[3] == 1 {
		dims = dims[:3]
	}
	return dims, nil
}

func (h *mghHeader) sampleType() (sampleType, error) {
	switch h.Type {
	case mriUchar:
		return uint8Sample, nil
	case mriInt:
		return int32Sample, nil
	case mriFloat:
		return float32Sample, nil
	case mriShort:
		return int16Sample, nil
	default:
		return 0, fmt.Errorf("unsupported MGH type %d", h.Type)
	}
}

func newMGHVolume(r io.ReaderAt, closer io.Closer, size int64, lazy bool) (*rawVolume, error) {
	hdr, err := readMGHHeader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, err
	}
	shape, err := hdr.shape()
	if err != nil {
		return nil, err
	}
	st, err := hdr.sampleType()
	if err != nil {
		return nil, err
	}
	return newRawVolume(r, closer, size, shape, mghDataOffset, st, binary.BigEndian, identity, lazy)
}

func openMGH(path string) (Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	v, err := newMGHVolume(f, f, info.Size(), true)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return v, nil
}

func openMGZ(path string) (Volume, error) {
	data, err := readGzip(path)
	if err != nil {
		return nil, err
	}
	return newMGHVolume(bytes.NewReader(data), nil, int64(len(data)), false)
}
