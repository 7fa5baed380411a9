package volume

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"
)

const (
	niftiHeaderSize  = 348
	nifti2HeaderSize = 540
	// niftiMinOffset is the header plus the 4-byte extension flag.
	niftiMinOffset = 352
)

// NIfTI-1 datatype codes.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
	dtInt64   = 1024
	dtUint64  = 1280
)

// niftiHeader is the on-disk NIfTI-1 header.
type niftiHeader struct {
	SizeOfHdr    int32
	DataTypeName [10]byte
	DBName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte

	Dim        [8]int16
	IntentP1   float32
	IntentP2   float32
	IntentP3   float32
	IntentCode int16
	DataType   int16
	BitPix     int16
	SliceStart int16
	PixDim     [8]float32
	VoxOffset  float32
	SclSlope   float32
	SclInter   float32
	SliceEnd   int16
	SliceCode  byte
	XYZTUnits  byte
	CalMax     float32
	CalMin     float32
	SliceDur   float32
	TOffset    float32
	GLMax      int32
	GLMin      int32

	Descrip [80]byte
	AuxFile [24]byte

	QFormCode int16
	SFormCode int16
	QuaternB  float32
	QuaternC  float32
	QuaternD  float32
	QOffsetX  float32
	QOffsetY  float32
	QOffsetZ  float32
	SRowX     [4]float32
	SRowY     [4]float32
	SRowZ     [4]float32

	IntentName [16]byte
	Magic      [4]byte
}

// readNIfTIHeader decodes the header and detects its byte order from
// sizeof_hdr.
func readNIfTIHeader(r io.Reader) (*niftiHeader, binary.ByteOrder, error) {
	buf := make([]byte, niftiHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(buf) == niftiHeaderSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(buf) == niftiHeaderSize:
		order = binary.BigEndian
	case binary.LittleEndian.Uint32(buf) == nifti2HeaderSize, binary.BigEndian.Uint32(buf) == nifti2HeaderSize:
		return nil, nil, fmt.Errorf("NIfTI-2 files are not supported")
	default:
		return nil, nil, fmt.Errorf("not a NIfTI-1 file (sizeof_hdr %d)", int32(binary.LittleEndian.Uint32(buf)))
	}

	var hdr niftiHeader
	if err := binary.Read(bytes.NewReader(buf), order, &hdr); err != nil {
		return nil, nil, fmt.Errorf("decode header: %w", err)
	}

	switch string(hdr.Magic[:3]) {
	case "n+1":
	case "ni1":
		return nil, nil, fmt.Errorf("separate .hdr/.img pairs are not supported")
	default:
		return nil, nil, fmt.Errorf("bad magic %q", hdr.Magic[:])
	}
	return &hdr, order, nil
}

// shape returns dim[1..dim[0]].
func (h *niftiHeader) shape() ([]int, error) {
	ndim := int(h.Dim[0])
	if ndim < 1 || ndim > 7 {
		return nil, fmt.Errorf("invalid dim[0] %d", ndim)
	}
	shape := make([]int, ndim)
	for i := range shape {
		d := int(h.Dim[i+1])
		if d < 1 {
			return nil, fmt.Errorf("invalid dim[%d] %d", i+1, d)
		}
		shape[i] = d
	}
	return shape, nil
}

func (h *niftiHeader) sampleType() (sampleType, error) {
	switch h.DataType {
	case dtUint8:
		return uint8Sample, nil
	case dtInt8:
		return int8Sample, nil
	case dtInt16:
		return int16Sample, nil
	case dtUint16:
		return uint16Sample, nil
	case dtInt32:
		return int32Sample, nil
	case dtUint32:
		return uint32Sample, nil
	case dtInt64:
		return int64Sample, nil
	case dtUint64:
		return uint64Sample, nil
	case dtFloat32:
		return float32Sample, nil
	case dtFloat64:
		return float64Sample, nil
	default:
		return 0, fmt.Errorf("unsupported datatype %d", h.DataType)
	}
}

// scaling returns scl_slope/scl_inter. A zero or non-finite slope disables
// scaling; a non-finite intercept counts as zero.
func (h *niftiHeader) scaling() scaling {
	slope, inter := float64(h.SclSlope), float64(h.SclInter)
	if slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
		return identity
	}
	if math.IsNaN(inter) || math.IsInf(inter, 0) {
		inter = 0
	}
	return scaling{slope: slope, inter: inter}
}

func (h *niftiHeader) dataOffset() int64 {
	off := int64(h.VoxOffset)
	if off < niftiMinOffset {
		off = niftiMinOffset
	}
	return off
}

// newNIfTIVolume builds a volume over r, which holds the whole file.
func newNIfTIVolume(r io.ReaderAt, closer io.Closer, size int64, lazy bool) (*rawVolume, error) {
	hdr, order, err := readNIfTIHeader(io.NewSectionReader(r, 0, size))
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
	return newRawVolume(r, closer, size, shape, hdr.dataOffset(), st, order, hdr.scaling(), lazy)
}

// openNIfTI opens an uncompressed .nii file for random access.
func openNIfTI(path string) (Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	v, err := newNIfTIVolume(f, f, info.Size(), true)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return v, nil
}

// openNIfTIGz decompresses a .nii.gz file into memory.
func openNIfTIGz(path string) (Volume, error) {
	data, err := readGzip(path)
	if err != nil {
		return nil, err
	}
	return newNIfTIVolume(bytes.NewReader(data), nil, int64(len(data)), false)
}

func readGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return data, nil
}
