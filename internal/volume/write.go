package volume

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// WriteOptions controls how samples are stored by the encoders.
type WriteOptions struct {
	// DataType is one of uint8, int8, int16, uint16, int32, uint32, float32
	// or float64. Empty means float32.
	DataType string
	// Slope and Inter are stored as scl_slope/scl_inter; samples are written
	// as (v - Inter) / Slope. A zero slope stores the samples unscaled.
	Slope float32
	Inter float32
	// BigEndian writes a big-endian NIfTI file.
	BigEndian bool
}

var dataTypeCodes = map[string]struct {
	code   int16
	sample sampleType
}{
	"uint8":   {dtUint8, uint8Sample},
	"int8":    {dtInt8, int8Sample},
	"int16":   {dtInt16, int16Sample},
	"uint16":  {dtUint16, uint16Sample},
	"int32":   {dtInt32, int32Sample},
	"uint32":  {dtUint32, uint32Sample},
	"float32": {dtFloat32, float32Sample},
	"float64": {dtFloat64, float64Sample},
}

// EncodeNIfTI writes a single-file NIfTI-1 image.
func EncodeNIfTI(w io.Writer, shape []int, data []float32, opts WriteOptions) error {
	if len(shape) < 1 || len(shape) > 7 {
		return fmt.Errorf("NIfTI-1 supports 1 to 7 dimensions, got %d", len(shape))
	}
	if n := numSamples(shape); n != len(data) {
		return fmt.Errorf("shape %v needs %d samples, got %d", shape, n, len(data))
	}
	name := opts.DataType
	if name == "" {
		name = "float32"
	}
	dt, ok := dataTypeCodes[name]
	if !ok {
		return fmt.Errorf("unsupported data type %q", opts.DataType)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if opts.BigEndian {
		order = binary.BigEndian
	}

	hdr := niftiHeader{
		SizeOfHdr: niftiHeaderSize,
		Regular:   'r',
		DataType:  dt.code,
		BitPix:    int16(dt.sample.size() * 8),
		VoxOffset: niftiMinOffset,
		SclSlope:  opts.Slope,
		SclInter:  opts.Inter,
		QFormCode: 0,
		SFormCode: 0,
	}
	hdr.Dim[0] = int16(len(shape))
	hdr.PixDim[0] = 1
	for i := range 7 {
		hdr.Dim[i+1] = 1
		hdr.PixDim[i+1] = 1
	}
	for i, d := range shape {
		if d < 1 || d > math.MaxInt16 {
			return fmt.Errorf("invalid size %d for dimension %d", d, i)
		}
		hdr.Dim[i+1] = int16(d)
	}
	copy(hdr.Magic[:], "n+1\x00")

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, order, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	// Empty extension flag.
	if _, err := bw.Write([]byte{0, 0, 0, 0}); err != nil {
		return err
	}

	unscale := func(v float32) float64 { return float64(v) }
	if opts.Slope != 0 {
		slope, inter := float64(opts.Slope), float64(opts.Inter)
		unscale = func(v float32) float64 { return (float64(v) - inter) / slope }
	}
	buf := make([]byte, dt.sample.size())
	for _, v := range data {
		encodeSample(buf, dt.sample, order, unscale(v))
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeMGH writes a float MGH volume. shape is (w, h, d) or (w, h, d, frames).
func EncodeMGH(w io.Writer, shape []int, data []float32) error {
	if len(shape) != 3 && len(shape) != 4 {
		return fmt.Errorf("MGH supports 3 or 4 dimensions, got %d", len(shape))
	}
	if n := numSamples(shape); n != len(data) {
		return fmt.Errorf("shape %v needs %d samples, got %d", shape, n, len(data))
	}
	hdr := mghHeader{
		Version: 1,
		Width:   int32(shape[0]),
		Height:  int32(shape[1]),
		Depth:   int32(shape[2]),
		NFrames: 1,
		Type:    mriFloat,
		GoodRAS: 1,
		Spacing: [3]float32{1, 1, 1},
		Mdc:     [9]float32{-1, 0, 0, 0, 0, -1, 0, 1, 0},
	}
	if len(shape) == 4 {
		hdr.NFrames = int32(shape[3])
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	pad := make([]byte, mghDataOffset-binary.Size(hdr))
	if _, err := bw.Write(pad); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return bw.Flush()
}

// EncodeDICOM writes a 3D volume as one multi-frame 16-bit MR image. Values
// are mapped onto the full uint16 range and restored through
// RescaleSlope/RescaleIntercept.
func EncodeDICOM(w io.Writer, shape []int, data []float32) error {
	if len(shape) != 3 {
		return fmt.Errorf("DICOM export needs a 3D volume, got %d dimensions", len(shape))
	}
	if n := numSamples(shape); n != len(data) {
		return fmt.Errorf("shape %v needs %d samples, got %d", shape, n, len(data))
	}
	cols, rows, nframes := shape[0], shape[1], shape[2]

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		lo = math.Min(lo, float64(v))
		hi = math.Max(hi, float64(v))
	}
	slope := 1.0
	if hi > lo {
		slope = (hi - lo) / math.MaxUint16
	}

	perFrame := rows * cols
	frames := make([]*frame.Frame, nframes)
	for f := range nframes {
		nf := frame.NewNativeFrame[uint16](16, rows, cols, perFrame, 1)
		for i := range perFrame {
			v := math.Round((float64(data[f*perFrame+i]) - lo) / slope)
			nf.RawData[i] = uint16(math.Max(0, math.Min(math.MaxUint16, v)))
		}
		frames[f] = &frame.Frame{Encapsulated: false, NativeData: nf}
	}

	uid := deterministicUID(shape, data)
	elements := []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{uid + ".3"}),
		mustNewElement(tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(tag.SOPInstanceUID, []string{uid + ".3"}),
		mustNewElement(tag.StudyInstanceUID, []string{uid + ".1"}),
		mustNewElement(tag.SeriesInstanceUID, []string{uid + ".2"}),
		mustNewElement(tag.Modality, []string{"MR"}),
		mustNewElement(tag.PatientName, []string{"SYNTHETIC^PHANTOM"}),
		mustNewElement(tag.PatientID, []string{"SYNTH0001"}),
		mustNewElement(tag.SeriesDescription, []string{"slicemovie synthetic volume"}),
		mustNewElement(tag.InstanceNumber, []string{"1"}),
		mustNewElement(tag.NumberOfFrames, []string{strconv.Itoa(nframes)}),
		mustNewElement(tag.Rows, []int{rows}),
		mustNewElement(tag.Columns, []int{cols}),
		mustNewElement(tag.BitsAllocated, []int{16}),
		mustNewElement(tag.BitsStored, []int{16}),
		mustNewElement(tag.HighBit, []int{15}),
		mustNewElement(tag.PixelRepresentation, []int{0}),
		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		mustNewElement(tag.RescaleSlope, []string{strconv.FormatFloat(slope, 'g', 10, 64)}),
		mustNewElement(tag.RescaleIntercept, []string{strconv.FormatFloat(lo, 'g', 10, 64)}),
		mustNewElement(tag.PixelData, dicom.PixelDataInfo{Frames: frames}),
	}

	return dicom.Write(w, dicom.Dataset{Elements: elements})
}

func encodeSample(buf []byte, s sampleType, order binary.ByteOrder, v float64) {
	if s != float32Sample && s != float64Sample {
		v = math.Round(v)
	}
	clamp := func(lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
	switch s {
	case uint8Sample:
		buf[0] = uint8(clamp(0, math.MaxUint8))
	case int8Sample:
		buf[0] = uint8(int8(clamp(math.MinInt8, math.MaxInt8)))
	case int16Sample:
		order.PutUint16(buf, uint16(int16(clamp(math.MinInt16, math.MaxInt16))))
	case uint16Sample:
		order.PutUint16(buf, uint16(clamp(0, math.MaxUint16)))
	case int32Sample:
		order.PutUint32(buf, uint32(int32(clamp(math.MinInt32, math.MaxInt32))))
	case uint32Sample:
		order.PutUint32(buf, uint32(clamp(0, math.MaxUint32)))
	case float32Sample:
		order.PutUint32(buf, math.Float32bits(float32(v)))
	case float64Sample:
		order.PutUint64(buf, math.Float64bits(v))
	}
}

// deterministicUID derives an instance UID root from the volume contents.
func deterministicUID(shape []int, data []float32) string {
	h := fnv.New64a()
	for _, d := range shape {
		_ = binary.Write(h, binary.LittleEndian, int64(d))
	}
	_ = binary.Write(h, binary.LittleEndian, data)
	return fmt.Sprintf("2.25.%d", h.Sum64())
}

// mustNewElement creates a new DICOM element, panicking on error.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}
